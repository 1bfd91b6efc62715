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

package qa

import (
	"github.com/poiesic/docqa/core"
	"github.com/tmc/langchaingo/prompts"
)

// Template input variables.
const (
	questionVar = "question"
	textVar     = "text"
)

var askPrompts = map[core.Language]prompts.PromptTemplate{
	core.LanguageEnglish: prompts.NewPromptTemplate("Answer in English: {{.question}}", []string{questionVar}),
	core.LanguageHindi:   prompts.NewPromptTemplate("प्रश्न का उत्तर हिंदी में दें: {{.question}}", []string{questionVar}),
	core.LanguageTelugu:  prompts.NewPromptTemplate("తెలుగులో సమాధానం ఇవ్వండి: {{.question}}", []string{questionVar}),
}

var summaryPrompts = map[core.Language]prompts.PromptTemplate{
	core.LanguageEnglish: prompts.NewPromptTemplate("Summarize in English: {{.text}}", []string{textVar}),
	core.LanguageHindi:   prompts.NewPromptTemplate("इस दस्तावेज़ का सार हिंदी में दें: {{.text}}", []string{textVar}),
	core.LanguageTelugu:  prompts.NewPromptTemplate("ఈ డాక్యుమెంట్‌ను తెలుగులో సంక్షిప్తీకరించండి: {{.text}}", []string{textVar}),
}

// AskPrompt formats a question for the given language.
// Unsupported languages use the English template.
func AskPrompt(lang core.Language, question string) (string, error) {
	return lookup(askPrompts, lang).Format(map[string]any{questionVar: question})
}

// SummaryPrompt formats a summary request over text for the given language.
// Unsupported languages use the English template.
func SummaryPrompt(lang core.Language, text string) (string, error) {
	return lookup(summaryPrompts, lang).Format(map[string]any{textVar: text})
}

func lookup(templates map[core.Language]prompts.PromptTemplate, lang core.Language) prompts.PromptTemplate {
	if tmpl, ok := templates[lang]; ok {
		return tmpl
	}
	return templates[core.LanguageEnglish]
}
