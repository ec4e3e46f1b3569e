package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Minute, cfg.Media.CacheTTL)
	assert.Equal(t, 2, cfg.Media.MaxDepth)
	assert.Equal(t, 20, cfg.Media.MaxItems)
	assert.Equal(t, "学员", cfg.Schema.RelationName)
	assert.Equal(t, []string{"类型", "Type"}, cfg.Schema.SubmissionCategory)
	assert.True(t, cfg.Association.OrphanSweep)
	assert.Equal(t, 30*time.Second, cfg.Media.WalkTimeout)
	assert.Equal(t, int64(50<<20), cfg.Server.MaxUploadBytes)
	assert.Empty(t, cfg.Notion.Token, "missing credentials must not fail loading")
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
notion:
  members_db_id: members-from-file
  submissions_db_id: submissions-from-file
media:
  cache_ttl: 90s
schema:
  submission_media: ["Attachments"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("NOTION_CHECKINS_DB_ID", "submissions-from-env")
	t.Setenv("SCHEMA_SUBMISSION_CATEGORY", " Kind , ,Type ")
	t.Setenv("MEDIA_MAX_ITEMS", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "members-from-file", cfg.Notion.MembersDBID)
	assert.Equal(t, "submissions-from-env", cfg.Notion.SubmissionsDBID)
	assert.Equal(t, 90*time.Second, cfg.Media.CacheTTL)
	assert.Equal(t, 5, cfg.Media.MaxItems)
	assert.Equal(t, []string{"Attachments"}, cfg.Schema.SubmissionMedia)
	assert.Equal(t, []string{"Kind", "Type"}, cfg.Schema.SubmissionCategory)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("NOTION_PAGE_SIZE", "500")
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("MEDIA_WALK_TIMEOUT", "0s")
	_, err := LoadConfig("")
	assert.Error(t, err)

	t.Setenv("MEDIA_WALK_TIMEOUT", "10s")
	t.Setenv("SERVER_MAX_UPLOAD_BYTES", "0")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedDuration(t *testing.T) {
	t.Setenv("MEDIA_CACHE_TTL", "three minutes")
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestRequireSession(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Error(t, cfg.RequireSession())

	cfg.Session.Secret = "s3cret"
	assert.NoError(t, cfg.RequireSession())
}
