package config

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_STRING
	TOKEN_EQUALS
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte("([^ \t\r\n=/\"]|/[^ \t\r\n=/])+"), getToken(TOKEN_WORD))
	lexer.Add([]byte(`/`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`"(\\.|[^"])*"`), getToken(TOKEN_STRING))
	lexer.Add([]byte(`=`), getToken(TOKEN_EQUALS))
	lexer.Add([]byte(`(\n|\r|\n\r)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`//[^\n]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte("[ \t]+"), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// Line is one meaningful config line. Value is empty for bare words
// (flag files).
type Line struct {
	Number int
	Key    string
	Value  string
}

// ParseLines splits text into key/value lines. Comments start with
// "//" and run to the end of line, a line without "=" yields only a key.
// Value words keep the spacing they had in the source.
func ParseLines(text []byte) ([]Line, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]Line, 0, 16)

	var current *Line
	var valueStart, valueEnd int
	afterEquals := false

	finish := func() {
		if current != nil {
			if afterEquals && valueEnd > valueStart && current.Value == "" {
				current.Value = string(text[valueStart:valueEnd])
			}
			result = append(result, *current)
		}
		current = nil
		afterEquals = false
		valueStart, valueEnd = 0, 0
	}

	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)

		switch tok.Type {
		case TOKEN_WORD:
			if current == nil {
				current = &Line{Number: tok.StartLine, Key: string(tok.Lexeme)}
			} else if !afterEquals {
				// keys may contain spaces in flag files
				current.Key += " " + string(tok.Lexeme)
			} else {
				if valueEnd == 0 {
					valueStart = tok.TC
				}
				valueEnd = tok.TC + len(tok.Lexeme)
			}
		case TOKEN_STRING:
			if current == nil || !afterEquals {
				return nil, errors.Errorf("Unexpected string on line %v (%q)", tok.StartLine, tok.Lexeme)
			}
			s, err := strconv.Unquote(string(tok.Lexeme))
			if err != nil {
				return nil, errors.Errorf("Unknown string format on line %v (%q)", tok.StartLine, tok.Lexeme)
			}
			current.Value = s
		case TOKEN_EQUALS:
			if current == nil {
				return nil, errors.Errorf("Missed key on line %v", tok.StartLine)
			}
			if afterEquals {
				if valueEnd == 0 {
					valueStart = tok.TC
				}
				valueEnd = tok.TC + len(tok.Lexeme)
			}
			afterEquals = true
		case TOKEN_NEWLINE:
			finish()
		case TOKEN_COMMENT:
		}
	}
	finish()

	return result, nil
}
