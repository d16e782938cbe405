package repository

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"carrierdesk/models"
)

func TestGenerateQuoteReference(t *testing.T) {
	ref := GenerateQuoteReference(42)

	assert.Regexp(t, regexp.MustCompile(`^QT-[A-Z]{2}00042$`), ref)
	assert.True(t, strings.HasSuffix(ref, "00042"))
}

func TestGenerateQuoteReferenceWideIDs(t *testing.T) {
	assert.Regexp(t, `^QT-[A-Z]{2}00001$`, GenerateQuoteReference(1))
	assert.Regexp(t, `^QT-[A-Z]{2}123456$`, GenerateQuoteReference(123456))
}

func TestFullLocation(t *testing.T) {
	tests := []struct {
		name  string
		quote models.Quote
		want  string
	}{
		{
			name:  "all parts",
			quote: models.Quote{Address: "200 Main St", City: "San Antonio", State: "TX", ZipCode: "78205"},
			want:  "200 Main St, San Antonio, TX, 78205",
		},
		{
			name:  "missing zip",
			quote: models.Quote{Address: "200 Main St", City: "San Antonio", State: "TX"},
			want:  "200 Main St, San Antonio, TX",
		},
		{
			name:  "whitespace parts skipped",
			quote: models.Quote{Address: "  ", City: "Austin", State: " TX "},
			want:  "Austin, TX",
		},
		{
			name:  "empty quote",
			quote: models.Quote{},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullLocation(&tt.quote))
		})
	}
}
