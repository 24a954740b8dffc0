package curated

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Entry is a hand-authored answer keyed by a canonical question.
type Entry struct {
	Subject string   `json:"subject,omitempty"`
	Chapter string   `json:"chapter,omitempty"`
	Q       string   `json:"q"`
	Aliases []string `json:"aliases,omitempty"`
	A       string   `json:"a"`
	Pages   string   `json:"pages,omitempty"`
}

// UnmarshalJSON accepts aliases either as a list or as a ';'-separated string.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Subject json.RawMessage `json:"subject"`
		Chapter json.RawMessage `json:"chapter"`
		Q       string          `json:"q"`
		Aliases json.RawMessage `json:"aliases"`
		A       string          `json:"a"`
		Pages   string          `json:"pages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry{
		Subject: scalarString(raw.Subject),
		Chapter: scalarString(raw.Chapter),
		Q:       raw.Q,
		A:       raw.A,
		Pages:   raw.Pages,
	}

	if len(raw.Aliases) == 0 || string(raw.Aliases) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.Aliases, &list); err == nil {
		e.Aliases = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(raw.Aliases, &joined); err != nil {
		return fmt.Errorf("aliases must be a list or a string: %w", err)
	}
	e.Aliases = splitAliases(joined)
	return nil
}

// scalarString decodes a JSON string or number; chapters are often written as 3.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func splitAliases(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ";") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

var builtinEntries = []Entry{
	{
		Subject: "Economics",
		Chapter: "3",
		Q:       "ways a partner can retire from the firm",
		A: "Exam-ready: Ways a partner may retire (Indian Partnership Act, 1932)\n" +
			"1) By consent of all partners (mutual agreement). [s.32(1)(a)]\n" +
			"2) In accordance with the partnership deed, if it expressly permits retirement and conditions are fulfilled. [s.32(1)(b)]\n" +
			"3) In a partnership at will, by giving written notice of intention to retire to all partners; retirement is effective from the date stated or the date of delivery. [s.32(1)(c) read with s.7]\n",
		Pages: "p15-16",
	},
	{
		Subject: "Economics",
		Chapter: "3",
		Q:       "modes of payment to a retiring partner",
		Aliases: splitAliases("settlement of amount due to retiring partner; disposal of amount due to retiring partner; payment to retiring partner; settlement to retiring partner; settlement of the amount due to a retired partner"),
		A: "Exam-ready: Modes of payment to a retiring partner\n" +
			"1) Lump-sum settlement in cash/bank: Retiring Partner’s Capital A/c Dr → Bank/Cash\n" +
			"2) Convert entire balance to loan: Retiring Partner’s Capital A/c Dr → Retiring Partner’s Loan A/c\n" +
			"3) Part cash now, balance as loan: Retiring Partner’s Capital A/c Dr → Bank/Cash; Retiring Partner’s Loan A/c\n" +
			"4) Instalments with interest on unpaid balance: Interest A/c Dr → Retiring Partner’s Loan A/c; then Retiring Partner’s Loan A/c Dr → Bank/Cash\n" +
			"Note: Loan balance appears under liabilities until cleared. If payment is deferred without agreement, s.37 IPA allows either 6% p.a. interest or a share of profits attributable to the use of the outgoing partner’s capital.",
		Pages: "p18-19",
	},
}

// BuiltinEntries returns a copy of the built-in entries.
func BuiltinEntries() []Entry {
	out := make([]Entry, len(builtinEntries))
	copy(out, builtinEntries)
	return out
}

var retirementRe = regexp.MustCompile(`(?i)\bways?\b.*\bpartner\b.*\bretire`)

var retirementWays = []string{
	"With consent of all partners (mutual agreement)",
	"In accordance with the partnership deed, where it permits retirement",
	"In a partnership at will, by written notice to all other partners",
}

// IsRetirementQuestion reports whether the question asks for the ways a
// partner can retire from a firm.
func IsRetirementQuestion(question string) bool {
	return retirementRe.MatchString(question)
}

// FallbackList returns bullet items for list questions whose passages yield
// no extractable items. Only the partner-retirement question has one.
func FallbackList(question string) ([]string, bool) {
	if !IsRetirementQuestion(question) {
		return nil, false
	}
	out := make([]string, len(retirementWays))
	copy(out, retirementWays)
	return out, true
}
