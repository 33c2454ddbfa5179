package clock

import "time"

// Clock абстрагирует текущее время. Все проверки дедлайнов (окно
// отзыва, истечение escrow) идут через него, чтобы тесты могли
// двигать время детерминированно.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System возвращает часы на основе time.Now.
func System() Clock {
	return systemClock{}
}

// Fixed - часы с управляемым временем для тестов.
type Fixed struct {
	Current time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t}
}

func (f *Fixed) Now() time.Time {
	return f.Current
}

// Advance сдвигает время вперёд.
func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
