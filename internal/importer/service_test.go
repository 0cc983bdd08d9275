package importer

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testImporter(db *gorm.DB) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(db, logger)
}

// TestStart_CreatesPendingJob tests job creation with auto-mapping
func TestStart_CreatesPendingJob(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "laptops.csv",
		CSVBody:     "Name,Serial Number\nMacBook,SN-1\nThinkPad,SN-2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusPending, job.Status)
	assert.Equal(t, 2, job.TotalRows)
	assert.Equal(t, 0, job.ProcessedRows)
	assert.Equal(t, map[string]string{
		"Name":          TargetName,
		"Serial Number": "serialNumber",
	}, job.ColumnMapping)
}

// TestStart_ExplicitMappingWins tests that a caller-supplied mapping is kept
func TestStart_ExplicitMappingWins(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	mapping := map[string]string{"Col A": TargetName, "Col B": "serialNumber"}
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "odd.csv",
		CSVBody:     "Col A,Col B\nBox,SN-9",
		Mapping:     mapping,
	})
	require.NoError(t, err)
	assert.Equal(t, mapping, job.ColumnMapping)
}

// TestProcess_MixedRows tests the end-to-end outcome: one good and one bad
// row complete the job with one error logged
func TestProcess_MixedRows(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name,Serial Number,RAM (GB)\nMacBook,SN-1,16\nThinkPad,SN-2,sixteen"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "mixed.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	done, err := svc.Get(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 2, done.ProcessedRows)
	assert.Equal(t, 1, done.SuccessCount)
	assert.Equal(t, 1, done.ErrorCount)
	require.Len(t, done.RowErrors, 1)
	assert.Equal(t, 2, done.RowErrors[0].Row)
	assert.Contains(t, done.RowErrors[0].Errors[0], "Must be a valid number")
	assert.NotZero(t, done.StartedAt)
	assert.NotZero(t, done.CompletedAt)

	var created []models.Asset
	require.NoError(t, setup.DB.Where("organization_id = ?", setup.Org.ID).Find(&created).Error)
	require.Len(t, created, 1)
	assert.Equal(t, "MacBook", created[0].Name)
	assert.Equal(t, "AST-00001", created[0].AssetTag)
	assert.Equal(t, "csv_import", created[0].Source)
	assert.Equal(t, models.StatusOrdered, created[0].Status)
}

// TestProcess_AllRowsInvalid tests the failed terminal status
func TestProcess_AllRowsInvalid(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name,RAM (GB)\n,16\n,32"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "bad.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	done, err := svc.Get(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusFailed, done.Status)
	assert.Equal(t, 0, done.SuccessCount)
	assert.Equal(t, 2, done.ErrorCount)
}

// TestProcess_EmptyCSVCompletes tests that zero data rows complete cleanly
func TestProcess_EmptyCSVCompletes(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name,Serial Number"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "header-only.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	done, err := svc.Get(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 0, done.ProcessedRows)
	assert.Equal(t, 0, done.ErrorCount)
}

// TestProcess_CountersInvariant tests success + error == processed <= total
func TestProcess_CountersInvariant(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name,RAM (GB)\nA,1\nB,x\nC,3\n,4\nE,5"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "five.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	done, err := svc.Get(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ProcessedRows, done.SuccessCount+done.ErrorCount)
	assert.LessOrEqual(t, done.ProcessedRows, done.TotalRows)
	assert.Equal(t, 3, done.SuccessCount)
	assert.Equal(t, 2, done.ErrorCount)
}

// TestProcess_StatusColumnApplied tests that a mapped status column overrides
// the ordered default
func TestProcess_StatusColumnApplied(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name,Status\nMacBook,In Use"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "status.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	var asset models.Asset
	require.NoError(t, setup.DB.First(&asset, "organization_id = ?", setup.Org.ID).Error)
	assert.Equal(t, models.StatusInUse, asset.Status)
}

// TestProcess_TerminalJobIsNoop tests idempotence against task redelivery
func TestProcess_TerminalJobIsNoop(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name\nMacBook"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "one.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))
	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	done, err := svc.Get(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, done.ProcessedRows, "second run must not reprocess")

	var count int64
	require.NoError(t, setup.DB.Model(&models.Asset{}).Where("organization_id = ?", setup.Org.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestCancel_PendingJob tests cancelling before processing starts
func TestCancel_PendingJob(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "cancel-me.csv",
		CSVBody:     "Name\nMacBook",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), setup.Org.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusFailed, cancelled.Status)
	require.Len(t, cancelled.RowErrors, 1)
	assert.Equal(t, 0, cancelled.RowErrors[0].Row)
	assert.Equal(t, []string{"cancelled by user"}, cancelled.RowErrors[0].Errors)
}

// TestCancel_CompletedJobRejected tests that completed jobs are immutable
func TestCancel_CompletedJobRejected(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	csvBody := "Name\nMacBook"
	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "done.csv",
		CSVBody:     csvBody,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), job.ID, csvBody))

	_, err = svc.Cancel(context.Background(), setup.Org.ID, job.ID)
	assert.ErrorIs(t, err, ErrJobCompleted)
}

// TestCancel_OrgScoped tests tenant isolation on cancel
func TestCancel_OrgScoped(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	job, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "mine.csv",
		CSVBody:     "Name\nMacBook",
	})
	require.NoError(t, err)

	otherOrg := testutil.CreateTestOrg(t, setup.DB)
	_, err = svc.Cancel(context.Background(), otherOrg.ID, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

// TestTemplateAndExport tests the header template and a round-trippable export
func TestTemplateAndExport(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	template, err := svc.Template(context.Background(), setup.Org.ID, at.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asset Tag,Name,Status,Serial Number,RAM (GB),Purchase Date,Managed", template)

	asset := testutil.CreateTestAsset(t, setup.DB, setup.Org.ID, at.ID, "AST-00001", "MacBook", models.StatusInUse)
	asset.Attributes = models.AttributeMap{
		"serialNumber": "SN-1",
		"ram":          16.0,
		"isManaged":    true,
	}
	require.NoError(t, setup.DB.Save(asset).Error)

	out, err := svc.Export(context.Background(), setup.Org.ID, at.ID)
	require.NoError(t, err)
	assert.Equal(t,
		"Asset Tag,Name,Status,Serial Number,RAM (GB),Purchase Date,Managed\nAST-00001,MacBook,in_use,SN-1,16,,true",
		out)
}

// TestCancel_DuringRunSticks tests that a cancel landing mid-run is never
// overwritten by the run's own writes
func TestCancel_DuringRunSticks(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	started, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "race.csv",
		CSVBody:     "Name\nBox One\nBox Two",
	})
	require.NoError(t, err)

	// A worker has claimed the job and holds its progress in memory.
	require.NoError(t, setup.DB.Model(started).Update("status", models.ImportStatusProcessing).Error)
	var running models.ImportJob
	require.NoError(t, setup.DB.First(&running, "id = ?", started.ID).Error)
	running.ProcessedRows = 1
	running.SuccessCount = 1

	// The user cancels between the row's work and its persist.
	_, err = svc.Cancel(context.Background(), setup.Org.ID, started.ID)
	require.NoError(t, err)

	// The row persist and the terminal write must both refuse to land.
	ok, err := svc.persistProgress(context.Background(), &running)
	require.NoError(t, err)
	assert.False(t, ok)

	running.Status = models.ImportStatusCompleted
	ok, err = svc.finish(context.Background(), &running)
	require.NoError(t, err)
	assert.False(t, ok)

	final, err := svc.Get(context.Background(), setup.Org.ID, started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusFailed, final.Status)
	assert.Equal(t, 0, final.ProcessedRows)
	require.Len(t, final.RowErrors, 1)
	assert.Equal(t, []string{"cancelled by user"}, final.RowErrors[0].Errors)
}

// TestStart_RowLimit tests that oversized uploads are rejected before any job
// row is persisted
func TestStart_RowLimit(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	at := testutil.CreateTestAssetType(t, setup.DB, setup.Org.ID)
	svc := testImporter(setup.DB)

	_, err := svc.Start(context.Background(), setup.Org.ID, setup.User.ID, StartInput{
		AssetTypeID: at.ID,
		FileName:    "big.csv",
		CSVBody:     "Name\nA\nB\nC",
		MaxRows:     2,
	})
	require.ErrorIs(t, err, ErrTooManyRows)

	var count int64
	require.NoError(t, setup.DB.Model(&models.ImportJob{}).Count(&count).Error)
	assert.Zero(t, count)
}
