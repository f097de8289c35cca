package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/shopbot/catalog-service/internal/fetch"
	"github.com/shopbot/catalog-service/internal/types"
)

func fastClient() *fetch.Client {
	cfg := fetch.DefaultConfig()
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	cfg.InitialBackoff = time.Millisecond
	return fetch.NewClient(cfg)
}

func sheetServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSheetSourceValidatesConfig(t *testing.T) {
	_, err := NewSheetSource(fastClient(), SheetConfig{})
	assert.Error(t, err)

	_, err = NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          "http://example/catalog",
		ScheduleURLTemplate: "http://example/schedule/{shop}",
		Format:              "parquet",
	})
	assert.Error(t, err)
}

func TestSheetSourceCatalogCSV(t *testing.T) {
	csvBody := "article,shop,name,department,supplier_code,supplier_name,tier\n" +
		"00123,7,Widget,3,S1,Acme,1\n" +
		"00456,7,Gadget,2,S2,Globex,0\n"
	srv := sheetServer(t, []byte(csvBody))

	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL,
		ScheduleURLTemplate: srv.URL + "/{shop}",
	})
	require.NoError(t, err)

	rows, err := src.FetchCatalogRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "00123", rows[0][types.FieldArticle])
	assert.Equal(t, "Widget", rows[0][types.FieldName])
	assert.Equal(t, "0", rows[1][types.FieldTier])
}

func TestSheetSourceHeaderMapping(t *testing.T) {
	csvBody := "Artikel,Laden,Bezeichnung\nA1,9,Thing\n"
	srv := sheetServer(t, []byte(csvBody))

	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL,
		ScheduleURLTemplate: srv.URL + "/{shop}",
		CatalogHeaders: HeaderMap{
			types.FieldArticle: "Artikel",
			types.FieldShop:    "Laden",
			types.FieldName:    "Bezeichnung",
		},
	})
	require.NoError(t, err)

	rows, err := src.FetchCatalogRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A1", rows[0][types.FieldArticle])
	assert.Equal(t, "9", rows[0][types.FieldShop])
	assert.Equal(t, "Thing", rows[0][types.FieldName])
	assert.Empty(t, rows[0][types.FieldDepartment])
}

func TestSheetSourceWindows1251CSV(t *testing.T) {
	utf8Body := "article,shop,name\n123,5,Молоко\n"
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(utf8Body))
	require.NoError(t, err)
	srv := sheetServer(t, encoded)

	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL,
		ScheduleURLTemplate: srv.URL + "/{shop}",
	})
	require.NoError(t, err)

	rows, err := src.FetchCatalogRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Молоко", rows[0][types.FieldName])
}

func TestSheetSourceScheduleURLTemplate(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("supplier_code,supplier_name,order_day_1,order_day_2,order_day_3,lead_days\nS1,Acme,2,4,,3\n"))
	}))
	defer srv.Close()

	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL + "/catalog",
		ScheduleURLTemplate: srv.URL + "/schedules/{shop}",
	})
	require.NoError(t, err)

	rows, err := src.FetchScheduleRows(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "/schedules/7", gotPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "S1", rows[0][types.FieldSupplierCode])
	assert.Equal(t, "4", rows[0][types.FieldOrderDay2])
	assert.Equal(t, "", rows[0][types.FieldOrderDay3])
	assert.Equal(t, "3", rows[0][types.FieldLeadDays])
}

func TestSheetSourceXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"article", "shop", "name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"00777", "3", "Bolt"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	srv := sheetServer(t, buf.Bytes())

	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL,
		ScheduleURLTemplate: srv.URL + "/{shop}",
		Format:              FormatXLSX,
	})
	require.NoError(t, err)

	rows, err := src.FetchCatalogRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "00777", rows[0][types.FieldArticle])
	assert.Equal(t, "Bolt", rows[0][types.FieldName])
}

func TestSheetSourceUsersNotConfigured(t *testing.T) {
	srv := sheetServer(t, []byte("article,shop\n"))
	src, err := NewSheetSource(fastClient(), SheetConfig{
		CatalogURL:          srv.URL,
		ScheduleURLTemplate: srv.URL + "/{shop}",
	})
	require.NoError(t, err)

	_, err = src.FetchUserRows(context.Background())
	assert.Error(t, err)
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("plain ascii")))
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte{0xEF, 0xBB, 0xBF, 'a'}))

	cp1251, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Артикул"))
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1251, DetectEncoding(cp1251))
}
