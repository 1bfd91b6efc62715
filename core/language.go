// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "strings"

// Language selects the prompt template used when talking to the model.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
	LanguageTelugu  Language = "telugu"
)

// Languages lists every supported language.
var Languages = []Language{LanguageEnglish, LanguageHindi, LanguageTelugu}

// ParseLanguage maps a user supplied language name to a Language.
// Matching is case-insensitive; unknown or empty names fall back to English.
func ParseLanguage(s string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageHindi:
		return LanguageHindi
	case LanguageTelugu:
		return LanguageTelugu
	default:
		return LanguageEnglish
	}
}
