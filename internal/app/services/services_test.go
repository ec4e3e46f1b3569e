package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/practicelog/internal/app/media"
	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/normalizer"
	"github.com/yigit/practicelog/internal/app/repositories"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/auth"
	"github.com/yigit/practicelog/internal/pkg/mediacache"
	"github.com/yigit/practicelog/internal/pkg/notion"
	"github.com/yigit/practicelog/internal/pkg/notion/notiontest"
)

const (
	membersDB     = "members-db"
	submissionsDB = "submissions-db"

	liLei = "m-lilei"
	han   = "m-han"
)

var base = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

type harness struct {
	fake    *notiontest.Fake
	repos   *repositories.Repositories
	checkin CheckinService
	auth    *AuthService
}

type harnessOption func(*repositories.Collections, *AssociationOptions, *MediaExtractor)

func withCollections(c repositories.Collections) harnessOption {
	return func(cols *repositories.Collections, _ *AssociationOptions, _ *MediaExtractor) { *cols = c }
}

func withoutOrphanSweep() harnessOption {
	return func(_ *repositories.Collections, opts *AssociationOptions, _ *MediaExtractor) { opts.OrphanSweep = false }
}

func withMedia(m MediaExtractor) harnessOption {
	return func(_ *repositories.Collections, _ *AssociationOptions, ex *MediaExtractor) { *ex = m }
}

func newHarness(t *testing.T, fake *notiontest.Fake, options ...harnessOption) *harness {
	t.Helper()

	cache, err := mediacache.New(time.Minute, 100, nil)
	require.NoError(t, err)

	cols := repositories.Collections{MembersID: membersDB, SubmissionsID: submissionsDB}
	opts := AssociationOptions{MaxDepth: 2, MaxItems: 20, Concurrency: 4, OrphanSweep: true}
	var extractor MediaExtractor = media.NewWalker(fake, cache, time.Minute, zerolog.Nop())
	for _, o := range options {
		o(&cols, &opts, &extractor)
	}

	norm := normalizer.New(config.DefaultSchema())
	repos := repositories.NewRepositories(fake, cols, repositories.QueryLimits{PageSize: 100, MaxRows: 100}, "学员", norm, zerolog.Nop())
	sessions := auth.NewSessionService(auth.SessionConfig{SecretKey: "secret", Expiration: time.Hour, TokenIssuer: "practicelog"})

	return &harness{
		fake:  fake,
		repos: repos,
		checkin: NewCheckinService(repos, norm, extractor, CheckinOptions{
			Association:   opts,
			PublicBaseURL: "http://localhost:3001",
		}, zerolog.Nop()),
		auth: NewAuthService(repos.MemberRepository, sessions, zerolog.Nop()),
	}
}

func seedMembers(fake *notiontest.Fake) {
	fake.AddDatabase(membersDB,
		notiontest.TitleSchema("Name"),
		notiontest.Schema("Level", notion.PropertySelect),
		notiontest.Schema("Password", notion.PropertyNumber),
	)
	fake.AddPages(membersDB,
		notiontest.Page(liLei, base,
			notiontest.Title("Name", "Li Lei"),
			notiontest.Select("Level", "L2"),
			notiontest.Number("Password", 1234),
		),
		notiontest.Page(han, base, notiontest.Title("Name", "韩梅梅")),
	)
}

// seedLinkedSubmissions declares the relation property and stores the reference scenario:
// one row linked to Li Lei, one unlinked row typed by hand, one row linked to someone else.
func seedLinkedSubmissions(fake *notiontest.Fake) {
	fake.AddDatabase(submissionsDB,
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("学员", membersDB),
		notiontest.Schema("视频/图片", notion.PropertyFiles),
		notiontest.Schema("Date", notion.PropertyDate),
		notiontest.Schema("类型", notion.PropertySelect),
	)
	fake.AddPages(submissionsDB,
		notiontest.Page("p1", base,
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", liLei),
			notiontest.ExternalFiles("视频/图片", "https://cdn/a.png", "https://cdn/c.mp4?sig=1"),
			notiontest.Select("类型", "打卡练习"),
		),
		notiontest.Page("p2", base.Add(time.Hour),
			notiontest.Title("StudentName", "lilei"),
			notiontest.Relation("学员"),
		),
		notiontest.Page("p3", base.Add(2*time.Hour),
			notiontest.Title("StudentName", "李雷"),
			notiontest.Relation("学员", han),
		),
	)
	fake.SetChildren("p2", notiontest.ParagraphBlock("p2-text", false), notiontest.ImageBlock("p2-img", "https://cdn/b.png"))
}

func ids(subs []models.Submission) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}

func TestListSubmissionsRelationTierIncludesUnlinkedNameMatches(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake)

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	require.Equal(t, []string{"p2", "p1"}, ids(subs))

	assert.Equal(t, []string{"https://cdn/b.png"}, subs[0].MediaURLs, "walked media for a row without explicit files")
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/c.mp4?sig=1"}, subs[1].MediaURLs)
	assert.Equal(t, "打卡练习", subs[1].CategoryLabel)

	var filtered []notiontest.Query
	for _, q := range fake.Queries() {
		if q.Filter != nil {
			filtered = append(filtered, q)
		}
	}
	require.Len(t, filtered, 1)
	assert.Equal(t, submissionsDB, filtered[0].DatabaseID)
	assert.Equal(t, "学员", filtered[0].Filter.Property)
	assert.Equal(t, liLei, filtered[0].Filter.Relation.Contains)
}

func TestListSubmissionsRelationTierWithoutSweep(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake, withoutOrphanSweep())

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(subs))
}

func TestListSubmissionsFallsBackToNamesWhenRelationIsEmpty(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	fake.AddDatabase(submissionsDB,
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("学员", membersDB),
	)
	fake.AddPages(submissionsDB,
		notiontest.Page("a", base, notiontest.Title("StudentName", "LI-LEI"), notiontest.Relation("学员")),
		notiontest.Page("b", base.Add(time.Hour), notiontest.Title("StudentName", " li lei "), notiontest.Relation("学员")),
		notiontest.Page("c", base.Add(2*time.Hour), notiontest.Title("StudentName", "Han"), notiontest.Relation("学员")),
	)
	h := newHarness(t, fake)

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(subs))
}

func TestListSubmissionsScansWithoutRelationProperty(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	fake.AddDatabase(submissionsDB,
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("Coach", "coaches-db"),
	)
	fake.AddPages(submissionsDB,
		notiontest.Page("by-name", base, notiontest.Title("StudentName", "Li Lei")),
		notiontest.Page("by-ref", base.Add(time.Hour), notiontest.Title("StudentName", "someone"), notiontest.Relation("Coach", "mlilei")),
		notiontest.Page("other", base.Add(2*time.Hour), notiontest.Title("StudentName", "Han")),
	)
	h := newHarness(t, fake)

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), "M-LILEI")
	require.NoError(t, err)
	assert.Equal(t, []string{"by-ref", "by-name"}, ids(subs))
}

func TestTiersAgreeOnTheSameRows(t *testing.T) {
	rows := func(fake *notiontest.Fake) {
		fake.AddPages(submissionsDB,
			notiontest.Page("x", base, notiontest.Title("StudentName", "Li Lei"), notiontest.Relation("学员")),
			notiontest.Page("y", base.Add(time.Hour), notiontest.Title("StudentName", "li·lei"), notiontest.Relation("学员")),
		)
	}

	withRelation := notiontest.New()
	seedMembers(withRelation)
	withRelation.AddDatabase(submissionsDB, notiontest.TitleSchema("StudentName"), notiontest.RelationSchema("学员", membersDB))
	rows(withRelation)

	withoutRelation := notiontest.New()
	seedMembers(withoutRelation)
	withoutRelation.AddDatabase(submissionsDB, notiontest.TitleSchema("StudentName"))
	rows(withoutRelation)

	a, err := newHarness(t, withRelation).checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	b, err := newHarness(t, withoutRelation).checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Equal(t, ids(a), ids(b))
	assert.Equal(t, []string{"y", "x"}, ids(a))
}

func TestListSubmissionsDegradesToEmpty(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	fake.FailQuery(submissionsDB, nil)
	h := newHarness(t, fake)

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = h.checkin.ListSubmissionsForMember(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	unconfigured := newHarness(t, fake, withCollections(repositories.Collections{}))
	members, err := unconfigured.checkin.ListMembers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, members)
}

type failingMedia struct{}

func (failingMedia) ExtractMedia(context.Context, string, int, int) ([]string, error) {
	return nil, errors.New("walk failed")
}

func TestFailedMediaWalkLeavesRowWithoutMedia(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake, withMedia(failingMedia{}))

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	require.Equal(t, []string{"p2", "p1"}, ids(subs))
	assert.Empty(t, subs[0].MediaURLs)
	assert.Len(t, subs[1].MediaURLs, 2)
}

func TestCreateSubmissionLinksMatchingMember(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake)

	day := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	created, err := h.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{
		MemberName: " li lei ",
		MediaURLs:  []string{"/uploads/x.png", " https://cdn/y.mp4 ", ""},
		OccurredAt: &day,
	})
	require.NoError(t, err)
	assert.True(t, created.Linked)
	assert.Equal(t, liLei, created.MemberID)
	assert.Equal(t, "学员", created.RelationProperty)
	assert.Equal(t, []string{"http://localhost:3001/uploads/x.png", "https://cdn/y.mp4"}, created.MediaURLs)
	assert.NotEmpty(t, created.ID)

	reqs := fake.Created()
	require.Len(t, reqs, 1)
	props := reqs[0].Properties
	assert.Equal(t, submissionsDB, reqs[0].Parent.DatabaseID)
	assert.Equal(t, "li lei", props["StudentName"].Title[0].Text.Content)
	assert.Equal(t, liLei, props["学员"].Relation[0].ID)
	assert.Equal(t, "2024-04-02", props["Date"].Date.Start)
	require.Len(t, props["视频/图片"].Files, 2)
	assert.Equal(t, "x.png", props["视频/图片"].Files[0].Name)

	subs, err := h.checkin.ListSubmissionsForMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Contains(t, ids(subs), created.ID)
}

func TestCreateSubmissionWithoutMatchingMember(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake)

	created, err := h.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{MemberName: "Nobody"})
	require.NoError(t, err)
	assert.False(t, created.Linked)
	assert.Empty(t, created.MemberID)

	props := fake.Created()[0].Properties
	assert.NotContains(t, props, "学员")
	assert.NotContains(t, props, "Date")
	assert.NotContains(t, props, "视频/图片")
}

func TestCreateSubmissionWhenMemberLookupFails(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)

	noMembers := newHarness(t, fake, withCollections(repositories.Collections{SubmissionsID: submissionsDB}))
	created, err := noMembers.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{MemberName: "Li Lei"})
	require.NoError(t, err)
	assert.False(t, created.Linked)
	assert.Empty(t, created.MemberID)

	fake.FailQuery(membersDB, nil)
	h := newHarness(t, fake)
	created, err = h.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{MemberName: "Li Lei"})
	require.NoError(t, err)
	assert.False(t, created.Linked)

	require.Len(t, fake.Created(), 2)
	for _, c := range fake.Created() {
		assert.NotContains(t, c.Properties, "学员")
	}
}

func TestCreateSubmissionErrors(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)

	unconfigured := newHarness(t, fake, withCollections(repositories.Collections{MembersID: membersDB}))
	_, err := unconfigured.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{MemberName: "Li Lei"})
	assert.True(t, apperrors.IsConfiguration(err))

	h := newHarness(t, fake)
	_, err = h.checkin.CreateSubmission(context.Background(), CreateSubmissionInput{MemberName: "  "})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Empty(t, fake.Created())
}

func TestDescribeSchemas(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)

	schemas, err := newHarness(t, fake).checkin.DescribeSchemas(context.Background())
	require.NoError(t, err)
	assert.Len(t, schemas.Members, 3)
	assert.Len(t, schemas.Submissions, 5)
	assert.Equal(t, membersDB, schemas.Submissions[1].RelationTarget)

	_, err = newHarness(t, fake, withCollections(repositories.Collections{SubmissionsID: submissionsDB})).
		checkin.DescribeSchemas(context.Background())
	assert.True(t, apperrors.IsConfiguration(err))

	fake.FailDatabase(membersDB, nil)
	_, err = newHarness(t, fake).checkin.DescribeSchemas(context.Background())
	assert.True(t, apperrors.IsProvider(err))
}

func TestListRecentSubmissions(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake)

	subs, err := h.checkin.ListRecentSubmissions(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(subs))
	assert.Equal(t, []string{"https://cdn/b.png"}, subs[1].MediaURLs)

	subs, err = h.checkin.ListRecentSubmissions(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, ids(subs))
}

func TestSummarizeMember(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	seedLinkedSubmissions(fake)
	h := newHarness(t, fake)

	summary, err := h.checkin.SummarizeMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Equal(t, "Li Lei", summary.Member.DisplayName)
	assert.Equal(t, "L2", summary.Member.LevelLabel)
	assert.Len(t, summary.Submissions, 2)
	assert.Equal(t, 1, summary.PracticeCheckins)
	assert.Equal(t, 3, summary.TotalMedia)
	assert.Equal(t, 2, summary.Images)
	assert.Equal(t, 1, summary.Videos)
	assert.Equal(t, []string{"https://cdn/b.png", "https://cdn/a.png"}, summary.Covers)

	_, err = h.checkin.SummarizeMember(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrMemberNotFound)
}

func TestSummarizeMemberTrimsCategory(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	fake.AddDatabase(submissionsDB,
		notiontest.TitleSchema("StudentName"),
		notiontest.RelationSchema("学员", membersDB),
		notiontest.Schema("类型", notion.PropertySelect),
	)
	fake.AddPages(submissionsDB,
		notiontest.Page("p1", base,
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", liLei),
			notiontest.Select("类型", " 打卡练习 "),
		),
		notiontest.Page("p2", base.Add(time.Hour),
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", liLei),
			notiontest.Select("类型", "打卡练习\t"),
		),
		notiontest.Page("p3", base.Add(2*time.Hour),
			notiontest.Title("StudentName", "Li Lei"),
			notiontest.Relation("学员", liLei),
			notiontest.Select("类型", "   "),
		),
	)
	h := newHarness(t, fake)

	summary, err := h.checkin.SummarizeMember(context.Background(), liLei)
	require.NoError(t, err)
	assert.Len(t, summary.Submissions, 3)
	assert.Equal(t, 2, summary.PracticeCheckins)
}

func TestLogin(t *testing.T) {
	fake := notiontest.New()
	seedMembers(fake)
	h := newHarness(t, fake)
	ctx := context.Background()

	result, err := h.auth.Login(ctx, "lilei", "1234")
	require.NoError(t, err)
	assert.Equal(t, liLei, result.Member.ID)
	claims, err := h.auth.Authenticate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, liLei, claims.MemberID)
	assert.Equal(t, "Li Lei", claims.MemberName)

	_, err = h.auth.Login(ctx, "", "1234")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	_, err = h.auth.Login(ctx, "Li Lei", "abc")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = h.auth.Login(ctx, "Nobody", "1")
	require.ErrorIs(t, err, apperrors.ErrMemberNotFound)
	var custom *apperrors.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, []string{"Li Lei", "韩梅梅"}, custom.Details["available"])

	_, err = h.auth.Login(ctx, "韩梅梅", "1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = h.auth.Login(ctx, "Li Lei", "999")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
