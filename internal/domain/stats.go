package domain

import (
	"math"
	"sort"
)

// Rate thresholds used for strong/weak classification
const (
	StrongRateThreshold = 80
	WeakRateThreshold   = 60
)

// RateBand classifies a correctness rate for display
type RateBand string

const (
	RateBandStrong   RateBand = "strong"
	RateBandModerate RateBand = "moderate"
	RateBandWeak     RateBand = "weak"
)

// BandFor returns the band a 0-100 rate falls in
func BandFor(rate int) RateBand {
	switch {
	case rate >= StrongRateThreshold:
		return RateBandStrong
	case rate >= WeakRateThreshold:
		return RateBandModerate
	default:
		return RateBandWeak
	}
}

// ChapterTotalQuestions sums section counts for sectioned chapters, else the flat count.
func ChapterTotalQuestions(c *Chapter) int {
	switch l := c.Layout.(type) {
	case *FlatLayout:
		return l.Questions.Count
	case *SectionedLayout:
		total := 0
		for _, s := range l.Sections {
			total += s.Questions.Count
		}
		return total
	default:
		return 0
	}
}

// passedQuestions counts questions in range whose most recent attempt is a pass.
func passedQuestions(qs *QuestionSet) int {
	passed := 0
	for _, a := range qs.Answers {
		if a.QuestionNumber < 1 || a.QuestionNumber > qs.Count {
			continue
		}
		if last := a.Last(); last != nil && last.Result == ResultPass {
			passed++
		}
	}
	return passed
}

func chapterTally(c *Chapter) (passed, total int) {
	switch l := c.Layout.(type) {
	case *FlatLayout:
		return passedQuestions(&l.Questions), l.Questions.Count
	case *SectionedLayout:
		for _, s := range l.Sections {
			passed += passedQuestions(&s.Questions)
			total += s.Questions.Count
		}
	}
	return passed, total
}

// Rate converts a pass tally to a rounded 0-100 percentage. Zero questions rate 0.
func Rate(passed, total int) int {
	if total <= 0 {
		return 0
	}
	r := int(math.Round(float64(passed) / float64(total) * 100))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// QuestionSetRate is the correctness rate of one flat chapter or section.
func QuestionSetRate(qs *QuestionSet) int {
	return Rate(passedQuestions(qs), qs.Count)
}

// ChapterRate is the correctness rate across a chapter. Unanswered questions count as failing.
func ChapterRate(c *Chapter) int {
	return Rate(chapterTally(c))
}

// BookRate is the correctness rate across every question of a book.
func BookRate(b *QuizBook) int {
	passed, total := 0, 0
	for _, c := range b.Chapters {
		p, t := chapterTally(c)
		passed += p
		total += t
	}
	return Rate(passed, total)
}

// BookTotalQuestions is the number of questions in a book
func BookTotalQuestions(b *QuizBook) int {
	total := 0
	for _, c := range b.Chapters {
		total += ChapterTotalQuestions(c)
	}
	return total
}

// MaxAttemptRound is the longest attempt history of any question in the book.
func MaxAttemptRound(b *QuizBook) int {
	max := 0
	visit := func(qs *QuestionSet) {
		for _, a := range qs.Answers {
			if len(a.Attempts) > max {
				max = len(a.Attempts)
			}
		}
	}
	for _, c := range b.Chapters {
		switch l := c.Layout.(type) {
		case *FlatLayout:
			visit(&l.Questions)
		case *SectionedLayout:
			for _, s := range l.Sections {
				visit(&s.Questions)
			}
		}
	}
	return max
}

// RefreshRates recomputes the stored chapter and book rates.
func (b *QuizBook) RefreshRates() {
	for _, c := range b.Chapters {
		c.ChapterRate = ChapterRate(c)
	}
	b.CorrectRate = BookRate(b)
}

// CategoryRollup aggregates the stored rates of the books in one category.
type CategoryRollup struct {
	Category    string
	Books       []*QuizBook
	AverageRate int
	TotalRounds int
	StrongBooks []*QuizBook
	WeakBooks   []*QuizBook
}

// RollupCategories groups books by category, averages their stored rates and
// sorts categories by descending average, ties broken by name.
func RollupCategories(books []*QuizBook) []*CategoryRollup {
	byCategory := make(map[string]*CategoryRollup)
	for _, b := range books {
		name := b.CategoryName()
		r, ok := byCategory[name]
		if !ok {
			r = &CategoryRollup{Category: name}
			byCategory[name] = r
		}
		r.Books = append(r.Books, b)
	}

	rollups := make([]*CategoryRollup, 0, len(byCategory))
	for _, r := range byCategory {
		sort.SliceStable(r.Books, func(i, j int) bool {
			if r.Books[i].CorrectRate != r.Books[j].CorrectRate {
				return r.Books[i].CorrectRate > r.Books[j].CorrectRate
			}
			return r.Books[i].ID < r.Books[j].ID
		})

		sum := 0
		for _, b := range r.Books {
			sum += b.CorrectRate
			r.TotalRounds += b.CurrentRound
			if b.CorrectRate >= StrongRateThreshold {
				r.StrongBooks = append(r.StrongBooks, b)
			}
			if b.CorrectRate < WeakRateThreshold {
				r.WeakBooks = append(r.WeakBooks, b)
			}
		}
		r.AverageRate = int(math.Round(float64(sum) / float64(len(r.Books))))
		rollups = append(rollups, r)
	}

	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].AverageRate != rollups[j].AverageRate {
			return rollups[i].AverageRate > rollups[j].AverageRate
		}
		return rollups[i].Category < rollups[j].Category
	})
	return rollups
}
