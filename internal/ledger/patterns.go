package ledger

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMinVotes is the number of matching history rows needed before a
// description token suggests a counter account.
const DefaultMinVotes = 2

// PatternSet suggests counter accounts for bank rows from earlier bookings
// on the same bank account.
type PatternSet struct {
	BankAccount string
	MinVotes    int

	byRef   map[string]map[string]int
	byToken map[string]map[string]int
}

// LearnPatterns builds a PatternSet from booked rows. Rows that do not touch
// bankAccount are ignored.
func LearnPatterns(bankAccount string, history []*Transaction) *PatternSet {
	p := &PatternSet{
		BankAccount: bankAccount,
		MinVotes:    DefaultMinVotes,
		byRef:       make(map[string]map[string]int),
		byToken:     make(map[string]map[string]int),
	}
	for _, tx := range history {
		counter, ok := p.counterOf(tx)
		if !ok || counter == "" {
			continue
		}
		if ref := normalizeRef(tx.Ref1); ref != "" {
			vote(p.byRef, ref, counter)
		}
		for _, tok := range Tokens(tx.Description) {
			vote(p.byToken, tok, counter)
		}
	}
	return p
}

func vote(m map[string]map[string]int, key, account string) {
	votes, ok := m[key]
	if !ok {
		votes = make(map[string]int)
		m[key] = votes
	}
	votes[account]++
}

// counterOf returns the account on the other side of the bank account.
func (p *PatternSet) counterOf(tx *Transaction) (string, bool) {
	if p.BankAccount == "" {
		return "", false
	}
	switch p.BankAccount {
	case tx.Debet:
		return tx.Credit, true
	case tx.Credit:
		return tx.Debet, true
	}
	return "", false
}

// Suggest returns the counter account for a bank row. An exact Ref1 match
// wins; otherwise description tokens vote and the top account must be
// unique and reach MinVotes.
func (p *PatternSet) Suggest(description, ref1 string) (string, bool) {
	if ref := normalizeRef(ref1); ref != "" {
		if account, ok := top(p.byRef[ref], 1); ok {
			return account, true
		}
	}

	totals := make(map[string]int)
	for _, tok := range Tokens(description) {
		for account, n := range p.byToken[tok] {
			totals[account] += n
		}
	}
	return top(totals, p.MinVotes)
}

func top(votes map[string]int, minVotes int) (string, bool) {
	best, bestN, tie := "", 0, false
	for account, n := range votes {
		switch {
		case n > bestN:
			best, bestN, tie = account, n, false
		case n == bestN:
			tie = true
		}
	}
	if tie || bestN < minVotes || bestN == 0 {
		return "", false
	}
	return best, true
}

// Apply fills the empty counter side of rows that book on the bank account.
// It returns how many rows were filled.
func (p *PatternSet) Apply(rows []*Transaction) int {
	if p.BankAccount == "" {
		return 0
	}
	filled := 0
	for _, tx := range rows {
		var slot *string
		switch {
		case tx.Debet == p.BankAccount && tx.Credit == "":
			slot = &tx.Credit
		case tx.Credit == p.BankAccount && tx.Debet == "":
			slot = &tx.Debet
		default:
			continue
		}
		if account, ok := p.Suggest(tx.Description, tx.Ref1); ok {
			*slot = account
			filled++
		}
	}
	return filled
}

// Tokens splits a description into lowercase words of at least three
// letters. Digits are dropped so that dates and invoice numbers do not vote.
func Tokens(description string) []string {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return -1
			}
			return r
		}, w)
		if len([]rune(w)) < 3 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func normalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}
