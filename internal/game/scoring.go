package game

const (
	// FirstQuestion through LastQuestion bound the ladder.
	FirstQuestion = 1
	LastQuestion  = 15

	basePrize int64 = 1_000_000
	// TopPrize is the fixed payout for clearing question 15.
	TopPrize int64 = 1_000_000_000

	lifelinePenalty = 5
)

// PrizeForQuestion returns the prize at stake while playing question n:
// 1,000,000 doubling per question, capped at the 1,000,000,000 top prize.
func PrizeForQuestion(n int) int64 {
	if n < FirstQuestion || n > LastQuestion {
		return 0
	}
	prize := basePrize << (n - 1)
	if prize > TopPrize {
		return TopPrize
	}
	return prize
}

// SafeCheckpoint returns the guaranteed payout for the highest question
// reached: nothing before Q6, 10M after Q5, 100M after Q10, the top prize
// past Q15. Non-decreasing in q.
func SafeCheckpoint(q int) int64 {
	switch {
	case q > 15:
		return TopPrize
	case q > 10:
		return 100_000_000
	case q > 5:
		return 10_000_000
	default:
		return 0
	}
}

// QuestionScore awards the seconds remaining on the clock minus five per
// lifeline consumed this game, floored at zero.
func QuestionScore(secondsRemaining, lifelinesUsed int) int {
	score := secondsRemaining - lifelinesUsed*lifelinePenalty
	if score < 0 {
		return 0
	}
	return score
}

// LevelForQuestion maps question numbers 1-5/6-10/11-15 to levels 0/1/2.
func LevelForQuestion(n int) int {
	switch {
	case n <= 5:
		return 0
	case n <= 10:
		return 1
	default:
		return 2
	}
}
