package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary_HasBuiltins(t *testing.T) {
	v := DefaultVocabulary()

	kinds := v.List()
	require.Len(t, kinds, len(Builtins))

	k, ok := v.Lookup(v1.TypePayment)
	require.True(t, ok)
	require.Equal(t, v1.CategoryRevenue, k.Category)
	require.Equal(t, []string{"amount", "currency", "processor"}, k.Required)
}

func TestVocabulary_Register(t *testing.T) {
	v := NewVocabulary()

	require.NoError(t, v.Register(Kind{Type: "tip", Category: "revenue", Required: []string{"amount"}}))
	require.ErrorIs(t, v.Register(Kind{Type: "tip", Category: "revenue"}), ErrAlreadyExists)
	require.ErrorIs(t, v.Register(Kind{Type: "", Category: "revenue"}), ErrInvalidKind)
	require.ErrorIs(t, v.Register(Kind{Type: "like"}), ErrInvalidKind)
}

func TestVocabulary_Check(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		name       string
		eventType  string
		category   string
		props      map[string]interface{}
		wantErr    bool
		wantFields []string
	}{
		{
			name:      "valid payment",
			eventType: v1.TypePayment,
			category:  v1.CategoryRevenue,
			props:     map[string]interface{}{"amount": 25.0, "currency": "USD", "processor": "ccbill"},
		},
		{
			name:      "unknown kind is free-form",
			eventType: "custom_thing",
			category:  "anything",
			props:     nil,
		},
		{
			name:       "missing property",
			eventType:  v1.TypePageView,
			category:   v1.CategoryNavigation,
			props:      map[string]interface{}{},
			wantErr:    true,
			wantFields: []string{"page"},
		},
		{
			name:       "empty string counts as missing",
			eventType:  v1.TypeContentView,
			category:   v1.CategoryEngagement,
			props:      map[string]interface{}{"contentId": "c1", "creatorId": ""},
			wantErr:    true,
			wantFields: []string{"creatorId"},
		},
		{
			name:       "category mismatch and missing properties",
			eventType:  v1.TypeAPICall,
			category:   v1.CategorySystem,
			props:      map[string]interface{}{"endpoint": "/v1/query", "method": "POST"},
			wantErr:    true,
			wantFields: []string{"statusCode", "responseTime"},
		},
		{
			name:      "zero numeric value is present",
			eventType: v1.TypeAPICall,
			category:  v1.CategoryPerformance,
			props:     map[string]interface{}{"endpoint": "/", "method": "GET", "statusCode": 200, "responseTime": 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Check(tc.eventType, tc.category, tc.props)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)

			var detailer ValidationDetailer
			require.True(t, errors.As(err, &detailer))
			details := detailer.Details()
			if len(tc.wantFields) == 1 {
				require.Equal(t, tc.wantFields[0], details["field"])
			} else {
				require.Equal(t, tc.wantFields, details["fields"])
				require.Equal(t, v1.CategoryPerformance, details["expected_category"])
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tip.yaml", "type: tip\ncategory: revenue\nrequired:\n  - amount\n  - creatorId\n")
	writeFile(t, dir, "empty.yml", "# nothing here\n")
	writeFile(t, dir, "notes.txt", "type: ignored\n")

	v := DefaultVocabulary()
	n, err := LoadDir(v, dir)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	k, ok := v.Lookup("tip")
	require.True(t, ok)
	require.Equal(t, []string{"amount", "creatorId"}, k.Required)
	require.Len(t, k.Fingerprint, 64)

	_, ok = v.Lookup("ignored")
	require.False(t, ok)
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	n, err := LoadDir(NewVocabulary(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLoadDir_RejectsBuiltinOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payment.yaml", "type: payment\ncategory: other\n")

	_, err := LoadDir(DefaultVocabulary(), dir)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLoadDir_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "type: [unclosed\n")

	_, err := LoadDir(NewVocabulary(), dir)
	require.ErrorContains(t, err, "parsing kind file")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
