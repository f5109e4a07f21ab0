// Package assist builds the model prompts for sign interpretation, Hindi
// translation and sign instructions.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ayusman/isharavaani/internal/apperr"
	"github.com/ayusman/isharavaani/internal/llm"
)

// Language is a natural language an interpretation can target.
type Language string

const (
	English Language = "English"
	Hindi   Language = "Hindi"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == English || l == Hindi
}

// ParseLanguage accepts a language name in any case.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, nil
	case "hindi", "hi":
		return Hindi, nil
	}
	return "", apperr.E(apperr.CodeInvalidArgument, "assist.ParseLanguage",
		fmt.Sprintf("unsupported language %q", s), nil)
}

// Fallback texts returned when the model produces nothing.
const (
	NoInterpretation = "Could not interpret sign."
	NoInstructions   = "No instructions found."
)

// MaxPhraseLength bounds user-typed text (see ValidatePhrase).
const MaxPhraseLength = 500

const expertInstruction = "You are an Indian Sign Language expert."

// Assistant is the set of model-backed operations the app uses.
type Assistant interface {
	Interpret(ctx context.Context, payload string, lang Language) (string, error)
	Translate(ctx context.Context, text string) (string, error)
	Instructions(ctx context.Context, phrase string) (string, error)
}

// Service implements Assistant on an llm.Generator.
type Service struct {
	gen llm.Generator
}

// NewService creates a Service.
func NewService(gen llm.Generator) *Service {
	return &Service{gen: gen}
}

// Interpret asks the model for a sentence in lang from a serialized
// landmark payload.
func (s *Service) Interpret(ctx context.Context, payload string, lang Language) (string, error) {
	const op = "Assistant.Interpret"

	if strings.TrimSpace(payload) == "" {
		return "", apperr.E(apperr.CodeInvalidArgument, op, "no landmarks captured", nil)
	}
	if !lang.Valid() {
		return "", apperr.E(apperr.CodeInvalidArgument, op, fmt.Sprintf("unsupported language %q", lang), nil)
	}

	prompt := fmt.Sprintf("The following is a list of hand landmark coordinates captured from a sign language speaker: %s. "+
		"Please interpret this sequence and translate it into a clear, fluent %s sentence. "+
		"If the sequence is unclear, provide your best guess or ask for clarification. "+
		"Respond only with the translated text.", payload, lang)

	text, err := s.gen.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return "", upstream(op, "interpretation failed", err)
	}
	if text == "" {
		return NoInterpretation, nil
	}
	return text, nil
}

// Translate renders text in natural Hindi. Text of any length is accepted;
// callers taking user input apply ValidatePhrase first.
func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	const op = "Assistant.Translate"

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.E(apperr.CodeInvalidArgument, op, "text is required", nil)
	}

	prompt := fmt.Sprintf("Translate the following sentence to natural-sounding Hindi: \"%s\"", text)
	out, err := s.gen.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return "", upstream(op, "translation failed", err)
	}
	if out == "" {
		return "", apperr.E(apperr.CodeUpstream, op, "empty translation", nil)
	}
	return out, nil
}

// Instructions describes how to sign phrase in Indian Sign Language.
func (s *Service) Instructions(ctx context.Context, phrase string) (string, error) {
	const op = "Assistant.Instructions"

	phrase, err := checkPhrase(op, phrase)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Describe how to perform Indian Sign Language (ISL) for the following sentence: \"%s\". "+
		"Provide step-by-step hand movements, facial expressions, and spatial orientation instructions "+
		"for someone learning the sign.", phrase)

	out, err := s.gen.Generate(ctx, llm.Request{System: expertInstruction, Prompt: prompt})
	if err != nil {
		return "", upstream(op, "Error fetching sign instructions.", err)
	}
	if out == "" {
		return NoInstructions, nil
	}
	return out, nil
}

// ValidatePhrase checks user-typed text: it must be non-blank and at most
// MaxPhraseLength characters.
func ValidatePhrase(text string) error {
	_, err := checkPhrase("assist.ValidatePhrase", text)
	return err
}

func checkPhrase(op, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.E(apperr.CodeInvalidArgument, op, "text is required", nil)
	}
	if utf8.RuneCountInString(s) > MaxPhraseLength {
		return "", apperr.E(apperr.CodeInvalidArgument, op,
			fmt.Sprintf("text exceeds %d characters", MaxPhraseLength), nil)
	}
	return s, nil
}

func upstream(op, msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.E(apperr.CodeTimeout, op, msg, err)
	}
	return apperr.E(apperr.CodeUpstream, op, msg, err)
}
