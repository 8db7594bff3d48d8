package nasa_test

import (
	"testing"

	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/nasa"
)

func photo(id int64, rover string) model.PhotoRecord {
	return model.PhotoRecord{ID: id, Rover: model.Rover{Name: rover}}
}

func TestSelectPerRover_CapAndOrder(t *testing.T) {
	var in []model.PhotoRecord
	for i := int64(1); i <= 25; i++ {
		r := "Curiosity"
		if i%5 == 0 {
			r = "Opportunity"
		}
		in = append(in, photo(i, r))
	}
	batches := nasa.SelectPerRover(in, 10)
	if len(batches) != 2 || batches[0].Rover != "Curiosity" || batches[1].Rover != "Opportunity" {
		t.Fatalf("batches = %+v", batches)
	}
	cur := batches[0].Photos
	if len(cur) != 10 {
		t.Fatalf("curiosity selected %d, want 10", len(cur))
	}
	// 前 10 张按原始顺序：1,2,3,4,6,7,8,9,11,12
	want := []int64{1, 2, 3, 4, 6, 7, 8, 9, 11, 12}
	for i, p := range cur {
		if p.ID != want[i] {
			t.Fatalf("position %d id=%d want %d", i, p.ID, want[i])
		}
	}
	if opp := batches[1].Photos; len(opp) != 5 || opp[0].ID != 5 || opp[4].ID != 25 {
		t.Fatalf("opportunity = %+v", opp)
	}
}

func TestSelectPerRover_NeverExceedsCap(t *testing.T) {
	for limit := 0; limit <= 12; limit++ {
		var in []model.PhotoRecord
		for i := int64(0); i < 30; i++ {
			in = append(in, photo(i, []string{"A", "B", "C"}[i%3]))
		}
		for _, b := range nasa.SelectPerRover(in, limit) {
			if len(b.Photos) > limit {
				t.Fatalf("limit %d: rover %s got %d", limit, b.Rover, len(b.Photos))
			}
			for i := 1; i < len(b.Photos); i++ {
				if b.Photos[i-1].ID >= b.Photos[i].ID {
					t.Fatalf("order not preserved for %s", b.Rover)
				}
			}
		}
	}
}

func TestSelectPerRover_Empty(t *testing.T) {
	if got := nasa.SelectPerRover(nil, 10); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}
