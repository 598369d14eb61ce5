package game

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Lifeline kinds as they appear on the wire and in the saved-game
// lifeline list.
const (
	LifelineFiftyFifty = "5050"
	LifelinePhone      = "PHONE"
	LifelineAudience   = "AUDIENCE"
)

// Oracle produces the randomized lifeline payloads. Outputs are
// non-deterministic; callers rely only on the structural invariants.
type Oracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewOracle() *Oracle {
	return &Oracle{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// PhoneHint is the Phone-a-Friend payload.
type PhoneHint struct {
	Suggestion int    `json:"suggestion"`
	Label      string `json:"label"`
	Confidence string `json:"confidence"`
}

// FiftyFifty keeps the correct option plus one random incorrect option,
// returned in ascending index order.
func (o *Oracle) FiftyFifty(correct int) []int {
	o.mu.Lock()
	defer o.mu.Unlock()

	wrong := make([]int, 0, 3)
	for i := 0; i < 4; i++ {
		if i != correct {
			wrong = append(wrong, i)
		}
	}
	remaining := []int{correct, wrong[o.rng.Intn(len(wrong))]}
	sort.Ints(remaining)
	return remaining
}

// Phone suggests the correct answer with 70% probability, otherwise a
// uniformly random other option, with a confidence phrase attached.
func (o *Oracle) Phone(correct int) PhoneHint {
	o.mu.Lock()
	defer o.mu.Unlock()

	suggestion := correct
	if o.rng.Intn(100) >= 70 {
		suggestion = o.rng.Intn(3)
		if suggestion >= correct {
			suggestion++
		}
	}

	label := string(rune('A' + suggestion))
	confidence := fmt.Sprintf("I think it might be %s, but I'm not certain", label)
	if suggestion == correct {
		confidence = fmt.Sprintf("I'm %d%% sure it's %s", 70+o.rng.Intn(30), label)
	}

	return PhoneHint{Suggestion: suggestion, Label: label, Confidence: confidence}
}

// Audience votes: the correct option draws 40-60%, the three incorrect
// options draw shares within [5,25], and the four always sum to exactly
// 100 with the correct option holding the maximum.
func (o *Oracle) Audience(correct int) map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	correctShare := 40 + o.rng.Intn(21)
	rest := 100 - correctShare

	// First two wrong shares are drawn so the third lands in [5,25] too;
	// the rounding remainder folds into the last one.
	lo1, hi1 := maxInt(5, rest-50), minInt(25, rest-10)
	w1 := lo1 + o.rng.Intn(hi1-lo1+1)
	lo2, hi2 := maxInt(5, rest-w1-25), minInt(25, rest-w1-5)
	w2 := lo2 + o.rng.Intn(hi2-lo2+1)
	w3 := rest - w1 - w2

	wrong := []int{w1, w2, w3}
	shares := make(map[string]int, 4)
	wi := 0
	for i := 0; i < 4; i++ {
		label := string(rune('A' + i))
		if i == correct {
			shares[label] = correctShare
		} else {
			shares[label] = wrong[wi]
			wi++
		}
	}
	return shares
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
