package healthexport

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestNewArchiveExtract(t *testing.T) {
	xmlDoc, err := os.ReadFile("testdata/export.xml")
	require.NoError(t, err)

	data := zipBytes(t, map[string]string{
		ExportPath:                           string(xmlDoc),
		"apple_health_export/export_cda.xml": "<ClinicalDocument/>",
		"apple_health_export/workout-routes/route_1.gpx": "<gpx/>",
	})

	a, err := NewArchive(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	defer a.Close()

	batch, err := a.Extract()
	require.NoError(t, err)
	assert.Len(t, batch.ActivitySummaries, 3)
	assert.Len(t, batch.Workouts, 2)
}

func TestNewArchiveRejectsNonZip(t *testing.T) {
	data := []byte("definitely not a zip")
	_, err := NewArchive(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestNewArchiveRequiresExactExportPath(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"export.xml":                "<HealthData/>",
		"other_folder/export.xml":   "<HealthData/>",
		"apple_health_export/x.xml": "<HealthData/>",
	})
	_, err := NewArchive(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidArchive)
	assert.Contains(t, err.Error(), ExportPath)
}

func TestOpenArchiveFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, os.WriteFile(path, zipBytes(t, map[string]string{
		ExportPath: `<HealthData><ActivitySummary dateComponents="2023-03-01"/></HealthData>`,
	}), 0o600))

	a, err := OpenArchive(path)
	require.NoError(t, err)
	batch, err := a.Extract()
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.Len(t, batch.ActivitySummaries, 1)
}

func TestOpenArchiveMissingFile(t *testing.T) {
	_, err := OpenArchive(filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArchive)
}
