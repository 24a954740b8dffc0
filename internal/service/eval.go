package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"studyqa/internal/contextutil"
	"studyqa/internal/lexical"
	"studyqa/internal/rag"
)

// evalConcurrency caps the number of cases asked at once.
const evalConcurrency = 4

// EvalCase is one expectation: a question and phrases a good hit contains.
type EvalCase struct {
	Q       string   `json:"q"`
	Must    []string `json:"must,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Chapter string   `json:"chapter,omitempty"`
}

// UnmarshalJSON accepts "must" as a single phrase or a list of phrases.
func (c *EvalCase) UnmarshalJSON(data []byte) error {
	var raw struct {
		Q       string          `json:"q"`
		Must    json.RawMessage `json:"must"`
		Subject string          `json:"subject"`
		Chapter string          `json:"chapter"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = EvalCase{Q: raw.Q, Subject: raw.Subject, Chapter: raw.Chapter}
	if len(raw.Must) == 0 || string(raw.Must) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw.Must, &one); err == nil {
		if one != "" {
			c.Must = []string{one}
		}
		return nil
	}
	if err := json.Unmarshal(raw.Must, &c.Must); err != nil {
		return fmt.Errorf("must: expected a string or a list of strings: %w", err)
	}
	return nil
}

// EvalRequest runs Cases with the same k and retriever.
type EvalRequest struct {
	Cases     []EvalCase
	K         int
	Retriever string
}

// EvalRow is the outcome of one case.
type EvalRow struct {
	Q         string `json:"q"`
	Hit       bool   `json:"hit"`
	Answer    bool   `json:"answer"`
	Citations bool   `json:"citations"`
	AnswerLen int    `json:"answer_len"`
	LatencyMS int64  `json:"latency_ms"`
	K         int    `json:"k"`
	Retriever string `json:"retriever"`
}

// EvalSummary aggregates an evaluation run.
type EvalSummary struct {
	Count        int     `json:"count"`
	HitAtK       int     `json:"hit_at_k"`
	Answers      int     `json:"answers"`
	Citations    int     `json:"citations"`
	HitRate      float64 `json:"hit_rate"`
	AnswerRate   float64 `json:"answer_rate"`
	CitationRate float64 `json:"citation_rate"`
}

// EvalReport is the result of Eval.
type EvalReport struct {
	Summary EvalSummary `json:"summary"`
	Rows    []EvalRow   `json:"rows"`
}

// Eval runs expectation cases through Ask and reports hit, answer and citation rates.
// A case hits when any retrieved passage contains any of its Must phrases, or
// when it has no Must phrases and anything was retrieved. Fixed fallback
// answers do not count as answers.
func (s *studyService) Eval(ctx context.Context, req EvalRequest) (EvalReport, error) {
	if len(req.Cases) == 0 {
		return EvalReport{}, invalid("cases", "at least one case is required")
	}

	rows := make([]EvalRow, len(req.Cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evalConcurrency)
	for i, c := range req.Cases {
		g.Go(func() error {
			start := time.Now()
			resp, err := s.Ask(gctx, AskRequest{
				Question:   c.Q,
				Subject:    c.Subject,
				Chapter:    c.Chapter,
				K:          req.K,
				Retriever:  req.Retriever,
				Synthesize: true,
			})
			if err != nil {
				return fmt.Errorf("case %d: %w", i+1, err)
			}
			rows[i] = EvalRow{
				Q:         c.Q,
				Hit:       hasExpected(resp.Results, c.Must),
				Answer:    isAnswer(resp.Answer),
				Citations: len(resp.Citations) > 0,
				AnswerLen: len([]rune(resp.Answer)),
				LatencyMS: time.Since(start).Milliseconds(),
				K:         req.K,
				Retriever: resp.Retriever,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvalReport{}, err
	}

	report := EvalReport{Summary: summarize(rows), Rows: rows}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "evaluation complete",
		"count", report.Summary.Count,
		"hit_at_k", report.Summary.HitAtK,
		"answers", report.Summary.Answers,
		"citations", report.Summary.Citations,
	)
	return report, nil
}

func hasExpected(hits []lexical.Hit, must []string) bool {
	if len(must) == 0 {
		return len(hits) > 0
	}
	for _, h := range hits {
		text := strings.ToLower(h.Text)
		for _, m := range must {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.Contains(text, m) {
				return true
			}
		}
	}
	return false
}

func isAnswer(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer != "" && answer != rag.NoPassagesAnswer && answer != rag.NoAnswerFound
}

func summarize(rows []EvalRow) EvalSummary {
	sum := EvalSummary{Count: len(rows)}
	for _, r := range rows {
		if r.Hit {
			sum.HitAtK++
		}
		if r.Answer {
			sum.Answers++
		}
		if r.Citations {
			sum.Citations++
		}
	}
	if sum.Count > 0 {
		n := float64(sum.Count)
		sum.HitRate = float64(sum.HitAtK) / n
		sum.AnswerRate = float64(sum.Answers) / n
		sum.CitationRate = float64(sum.Citations) / n
	}
	return sum
}
