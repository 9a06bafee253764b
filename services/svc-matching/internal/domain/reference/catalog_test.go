package reference_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
)

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		tables  map[reference.TableKey]reference.Table
		wantErr error
	}{
		{
			name: "valid tables",
			tables: map[reference.TableKey]reference.Table{
				reference.TableOrderStatus: {{ID: "1", Value: "new"}, {ID: "2", Value: "closed"}},
			},
		},
		{
			name:    "unknown table key",
			tables:  map[reference.TableKey]reference.Table{"colours": {{ID: "1", Value: "red"}}},
			wantErr: reference.ErrUnknownTable,
		},
		{
			name: "duplicate id",
			tables: map[reference.TableKey]reference.Table{
				reference.TableOrderStage: {{ID: "1", Value: "loading"}, {ID: "1", Value: "transit"}},
			},
			wantErr: reference.ErrDuplicateID,
		},
		{
			name: "missing id",
			tables: map[reference.TableKey]reference.Table{
				reference.TableOrderStage: {{Value: "loading"}},
			},
			wantErr: reference.ErrEmptyID,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			catalog, err := reference.NewCatalog(tc.tables)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Nil(t, catalog)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, catalog)
		})
	}
}

func TestCatalog_TableIsACopy(t *testing.T) {
	t.Parallel()

	catalog, err := reference.NewCatalog(map[reference.TableKey]reference.Table{
		reference.TableOrderStatus: {{ID: "1", Value: "new"}},
	})
	require.NoError(t, err)

	table, ok := catalog.Table(reference.TableOrderStatus)
	require.True(t, ok)

	table[0].Value = "mutated"

	again, _ := catalog.Table(reference.TableOrderStatus)
	require.Equal(t, "new", again[0].Value)
	require.True(t, catalog.HasID(reference.TableOrderStatus, "1"))
	require.False(t, catalog.HasID(reference.TableOrderStage, "1"))
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		payload     string
		wantID      string
		wantAlias   string
		wantNumeric bool
		wantSet     bool
	}{
		{name: "string alias", payload: `{"id":"5","value":"tent","alias":"T"}`, wantID: "5", wantAlias: "T", wantSet: true},
		{name: "numeric alias", payload: `{"id":"6","value":"reefer","alias":20}`, wantID: "6", wantAlias: "20", wantNumeric: true, wantSet: true},
		{name: "numeric id without alias", payload: `{"id":7,"value":"flatbed"}`, wantID: "7"},
		{name: "null alias", payload: `{"id":"8","alias":null}`, wantID: "8"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var entry reference.Entry
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &entry))

			require.Equal(t, tc.wantID, entry.ID)
			require.Equal(t, tc.wantAlias, entry.Alias.String())
			require.Equal(t, tc.wantNumeric, entry.Alias.IsNumeric())
			require.Equal(t, tc.wantSet, entry.Alias.IsSet())
		})
	}
}
