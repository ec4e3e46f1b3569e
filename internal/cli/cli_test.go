package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/bootstrap"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/notion"
	"github.com/yigit/practicelog/internal/pkg/notion/notiontest"
)

func useFake(t *testing.T) *notiontest.Fake {
	t.Helper()

	fake := notiontest.New()
	created := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	fake.AddDatabase("members", notiontest.TitleSchema("Name"))
	fake.AddPages("members",
		notiontest.Page("m-lilei", created, notiontest.Title("Name", "Li Lei")),
		notiontest.Page("m-han", created, notiontest.Title("Name", "韩梅梅")),
	)
	fake.AddDatabase("submissions",
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("学员", "members"),
		notiontest.Schema("视频/图片", notion.PropertyFiles),
		notiontest.Schema("Date", notion.PropertyDate),
	)
	fake.AddPages("submissions",
		notiontest.Page("s-old", created,
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", "m-lilei"),
			notiontest.ExternalFiles("视频/图片", "https://cdn/a.png"),
		),
		notiontest.Page("s-new", created.Add(24*time.Hour),
			notiontest.Title("StudentName", "韩梅梅"),
			notiontest.Relation("学员", "m-han"),
		),
	)

	previous := openCore
	openCore = func(cmd *cobra.Command) (*bootstrap.Core, error) {
		cfg, err := config.LoadConfig("")
		if err != nil {
			return nil, err
		}
		cfg.Notion.MembersDBID = "members"
		cfg.Notion.SubmissionsDBID = "submissions"
		cfg.Server.PublicBaseURL = "https://practice.example"
		return bootstrap.NewCore(cfg, fake, zerolog.Nop())
	}
	t.Cleanup(func() { openCore = previous })
	return fake
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	formatFlag = "json"
	configPath = ""
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs(args)
	_, err := RootCmd.ExecuteC()
	return out.String(), err
}

func TestMembersCommand(t *testing.T) {
	useFake(t)

	out, err := execute(t, "members")
	require.NoError(t, err)
	var members []models.Member
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 2)

	out, err = execute(t, "members", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "m-lilei\tLi Lei\n")
	assert.Contains(t, out, "m-han\t韩梅梅\n")
}

func TestSubmissionsCommand(t *testing.T) {
	useFake(t)

	out, err := execute(t, "submissions", "--member", "m-lilei")
	require.NoError(t, err)
	var subs []models.Submission
	require.NoError(t, json.Unmarshal([]byte(out), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "s-old", subs[0].ID)
	assert.Equal(t, []string{"https://cdn/a.png"}, subs[0].MediaURLs)

	_, err = execute(t, "submissions", "--member", "")
	assert.Error(t, err)
}

func TestRecentCommand(t *testing.T) {
	useFake(t)

	out, err := execute(t, "recent", "--limit", "1")
	require.NoError(t, err)
	var subs []models.Submission
	require.NoError(t, json.Unmarshal([]byte(out), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "s-new", subs[0].ID)
}

func TestSchemaCommand(t *testing.T) {
	useFake(t)

	out, err := execute(t, "schema")
	require.NoError(t, err)
	var schemas models.CollectionSchemas
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	assert.Len(t, schemas.Members, 1)
	assert.Len(t, schemas.Submissions, 4)

	out, err = execute(t, "schema", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "学员\trelation -> members")
}

func TestSummaryCommand(t *testing.T) {
	useFake(t)

	out, err := execute(t, "summary", "m-lilei")
	require.NoError(t, err)
	var summary models.MemberSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "Li Lei", summary.Member.DisplayName)
	assert.Equal(t, 1, summary.Images)

	_, err = execute(t, "summary")
	assert.Error(t, err)
}

func TestCreateCommand(t *testing.T) {
	fake := useFake(t)

	out, err := execute(t, "create", "--name", "Li Lei", "--media", "/uploads/a.png,https://cdn/b.mp4", "--date", "2024-04-02")
	require.NoError(t, err)
	var created models.CreatedSubmission
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.True(t, created.Linked)
	assert.Equal(t, "m-lilei", created.MemberID)
	assert.Equal(t, []string{"https://practice.example/uploads/a.png", "https://cdn/b.mp4"}, created.MediaURLs)

	require.Len(t, fake.Created(), 1)
	props := fake.Created()[0].Properties
	require.Contains(t, props, "Date")
	assert.Equal(t, "2024-04-02", props["Date"].Date.Start)

	_, err = execute(t, "create", "--name", "Li Lei", "--date", "02/04/2024")
	assert.Error(t, err)

	_, err = execute(t, "create", "--name", "")
	assert.Error(t, err)
	assert.Len(t, fake.Created(), 1)
}
