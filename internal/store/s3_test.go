package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Location
		wantErr bool
	}{
		{"bucket and key", "s3://rolls/2026/doc.pdf", Location{Bucket: "rolls", Key: "2026/doc.pdf"}, false},
		{"bucket and prefix", "s3://rolls/2026/", Location{Bucket: "rolls", Key: "2026/"}, false},
		{"bucket only", "s3://rolls", Location{Bucket: "rolls", Key: ""}, false},
		{"bucket with trailing slash", "s3://rolls/", Location{Bucket: "rolls", Key: ""}, false},
		{"not s3", "https://rolls/2026", Location{}, true},
		{"missing bucket", "s3:///2026", Location{}, true},
		{"empty", "", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
