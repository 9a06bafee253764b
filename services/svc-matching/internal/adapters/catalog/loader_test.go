package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/catalog"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()

	loaded, err := catalog.LoadFile(filepath.Join("testdata", "reference.hujson"))
	require.NoError(t, err)

	require.Equal(t, []reference.TableKey{
		reference.TableRiskClass,
		reference.TableTransportBrand,
		reference.TableTransportPayload,
	}, loaded.Tables())

	brands, ok := loaded.Table(reference.TableTransportBrand)
	require.True(t, ok)
	require.Len(t, brands, 3)
	require.Equal(t, "101", brands[0].ID)
	require.Equal(t, "volvo", brands[0].Alias.String())
	require.Equal(t, "103", brands[2].ID)
	require.False(t, brands[2].Alias.IsSet())

	risks, ok := loaded.Table(reference.TableRiskClass)
	require.True(t, ok)
	require.True(t, risks[0].Alias.IsNumeric())
	require.True(t, loaded.HasID(reference.TableTransportPayload, "56"))
}

func TestLoadFile_ShippedCatalog(t *testing.T) {
	t.Parallel()

	loaded, err := catalog.LoadFile(filepath.Join("..", "..", "..", "config", "reference.hujson"))
	require.NoError(t, err)
	require.ElementsMatch(t, reference.TableKeys(), loaded.Tables())
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "absent.hujson"))

	require.ErrorIs(t, err, model.ErrCatalogLoad)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		document  string
		errSubstr string
		wantErr   error
	}{
		{
			name:     "empty document",
			document: `{}`,
		},
		{
			name:      "broken HuJSON",
			document:  `{"transportBrand": [`,
			errSubstr: "invalid HuJSON",
		},
		{
			name:      "wrong shape",
			document:  `{"transportBrand": {"id": 1}}`,
			errSubstr: "invalid JSON",
		},
		{
			name:     "unknown table",
			document: `{"cargoColour": [{"id": 1, "value": "red"}]}`,
			wantErr:  reference.ErrUnknownTable,
		},
		{
			name: "duplicate id",
			document: `{
				"fixtures": [
					{"id": 1, "value": "straps"},
					{"id": "1", "value": "chains"},
				],
			}`,
			wantErr: reference.ErrDuplicateID,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := catalog.Parse([]byte(tc.document))

			if tc.errSubstr == "" && tc.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, model.ErrCatalogLoad)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}

			if tc.errSubstr != "" {
				require.Contains(t, err.Error(), tc.errSubstr)
			}
		})
	}
}
