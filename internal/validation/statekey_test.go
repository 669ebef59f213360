package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegionType(t *testing.T) {
	tests := []struct {
		name       string
		regionType string
		wantErr    bool
	}{
		{
			name:       "valid type - lowercase",
			regionType: "inventory",
			wantErr:    false,
		},
		{
			name:       "valid type - with hyphen",
			regionType: "geo-pos",
			wantErr:    false,
		},
		{
			name:       "valid type - with underscore and digits",
			regionType: "user_map_2",
			wantErr:    false,
		},
		{
			name:       "empty type",
			regionType: "",
			wantErr:    true,
		},
		{
			name:       "type with colon",
			regionType: "inventory:me",
			wantErr:    true,
		},
		{
			name:       "type with slash",
			regionType: "a/b",
			wantErr:    true,
		},
		{
			name:       "type too long",
			regionType: strings.Repeat("a", 65),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegionType(tt.regionType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDescriptor(t *testing.T) {
	assert.NoError(t, ValidateDescriptor(""))
	assert.NoError(t, ValidateDescriptor("owner=me&parent=."))
	assert.Error(t, ValidateDescriptor(strings.Repeat("x", MaxDescriptorLen+1)))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		stateKey string
		want     string
	}{
		{
			name:     "already safe",
			stateKey: "inventory",
			want:     "inventory",
		},
		{
			name:     "colon replaced",
			stateKey: "inventory:owner=me",
			want:     "inventory_owner_me",
		},
		{
			name:     "path separators replaced",
			stateKey: "a/b\\c",
			want:     "a_b_c",
		},
		{
			name:     "dots and dashes kept",
			stateKey: "geo-pos:1.5,2.5",
			want:     "geo-pos_1.5_2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.stateKey))
		})
	}
}
