package slime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyTableRemap(t *testing.T) {
	const (
		wool  = 35
		stone = 1
		log   = 17
	)
	table := &LegacyTable{
		Valid: func(id, data uint8, target WorldVersion) bool {
			switch id {
			case wool:
				return true
			case stone:
				return data <= 6
			case log:
				return data < 12
			}
			return false
		},
		Rules: map[uint8]LegacyRule{
			stone: {Default: 0},
			log: {
				Convert: func(data uint8, target WorldVersion) (uint8, bool) {
					if data == 12 {
						return 0, true
					}
					return 0, false
				},
				Default: 1,
			},
		},
	}

	tests := []struct {
		name     string
		id, data uint8
		want     uint8
	}{
		{"valid pair is kept", wool, 14, 14},
		{"invalid pair without converter uses default", stone, 9, 0},
		{"converter result", log, 12, 0},
		{"converter failure uses default", log, 15, 1},
		{"unknown id passes through", 200, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, data := table.Remap(tt.id, tt.data, V1_13)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.want, data)
		})
	}
}
