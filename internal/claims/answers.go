package claims

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/model"
)

// descriptionQuestion labels the single free-form answer given for an item
// without verification questions.
const descriptionQuestion = "Item Description"

// AnswerInput is one submitted answer. Clients send either a bare string or
// a {question, answer} object; both decode into this type.
type AnswerInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UnmarshalJSON accepts a JSON string or object.
func (a *AnswerInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = AnswerInput{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerInput{Answer: s}
		return nil
	}

	type plain AnswerInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("answer must be a string or an object: %w", err)
	}
	*a = AnswerInput(p)
	return nil
}

// NormalizeAnswers pairs submitted answers with the item's verification
// questions by position. The result has one entry per question: missing
// answers are empty and extra answers are dropped. Blank questions are
// labelled "Question <i>". When no question has any text, a single
// "Item Description" pair carries the first answer.
func NormalizeAnswers(questions []string, in []AnswerInput) []model.Answer {
	answerAt := func(i int) string {
		if i < len(in) {
			return strings.TrimSpace(in[i].Answer)
		}
		return ""
	}

	if !hasQuestions(questions) {
		return []model.Answer{{Question: descriptionQuestion, Answer: answerAt(0)}}
	}

	out := make([]model.Answer, len(questions))
	for i, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			q = fmt.Sprintf("Question %d", i+1)
		}
		out[i] = model.Answer{Question: q, Answer: answerAt(i)}
	}
	return out
}

func hasQuestions(questions []string) bool {
	for _, q := range questions {
		if strings.TrimSpace(q) != "" {
			return true
		}
	}
	return false
}
