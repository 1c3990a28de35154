package service

import "testing"

func TestEvaluationLog_Evicts(t *testing.T) {
	l := NewEvaluationLog(3)
	for i := 1; i <= 5; i++ {
		l.Add(EvaluationRecord{Cost: i})
	}

	if l.Len() != 3 {
		t.Fatalf("Expected 3 records, got %d", l.Len())
	}
	records := l.Records()
	for i, want := range []int{3, 4, 5} {
		if records[i].Cost != want {
			t.Errorf("Record %d: expected cost %d, got %d", i, want, records[i].Cost)
		}
	}

	l.Reset()
	if l.Len() != 0 || len(l.Records()) != 0 {
		t.Error("Reset should drop all records")
	}
}

func TestEvaluationLog_MinimumLimit(t *testing.T) {
	l := NewEvaluationLog(0)
	l.Add(EvaluationRecord{Cost: 1})
	l.Add(EvaluationRecord{Cost: 2})

	if l.Len() != 1 || l.Records()[0].Cost != 2 {
		t.Errorf("Expected only the latest record, got %v", l.Records())
	}
}
