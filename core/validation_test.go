package core

import (
	"errors"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{name: "pdf", filename: "report.pdf", wantErr: nil},
		{name: "upper case extension", filename: "REPORT.PDF", wantErr: nil},
		{name: "with directories", filename: "../../etc/report.pdf", wantErr: nil},
		{name: "text file", filename: "notes.txt", wantErr: ErrNotPDF},
		{name: "pdf in the middle", filename: "report.pdf.exe", wantErr: ErrNotPDF},
		{name: "no extension", filename: "report", wantErr: ErrNotPDF},
		{name: "empty", filename: "", wantErr: ErrEmptyFilename},
		{name: "whitespace", filename: "   ", wantErr: ErrEmptyFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFilename() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report.pdf"},
		{"dir/report.pdf", "report.pdf"},
		{`C:\Users\me\report.pdf`, "report.pdf"},
		{"../report.pdf", "report.pdf"},
		{"..", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanFilename(tt.input); got != tt.want {
				t.Errorf("CleanFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantErr  bool
	}{
		{name: "question", question: "What is this about?", wantErr: false},
		{name: "empty", question: "", wantErr: true},
		{name: "whitespace", question: " \t\n ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(tt.question)
			if tt.wantErr && !errors.Is(err, ErrEmptyQuestion) {
				t.Errorf("ValidateQuestion() error = %v, want %v", err, ErrEmptyQuestion)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateQuestion() error = %v, want nil", err)
			}
		})
	}
}
