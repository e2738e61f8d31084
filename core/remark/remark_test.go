package remark_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/tests"
)

var (
	formMaster = audit.Actor{UserID: "fm", Role: user.RoleFormMaster}
	principal  = audit.Actor{UserID: "pr", Role: user.RolePrincipal}
	admin      = audit.Actor{UserID: "ad", Role: user.RoleAdmin}
)

func str(s string) *string { return &s }

func TestService_Save(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	_, err := env.Remarks.Save(ctx, formMaster, remark.UpdateRemark{StudentID: "st1", TermID: "t2", PrincipalRemark: str("Promoted.")})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "principal_remark", vErr.Fields[0].Field)

	_, err = env.Remarks.Save(ctx, principal, remark.UpdateRemark{StudentID: "st1", TermID: "t2", FormMasterRemark: str("Good.")})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "form_master_remark", vErr.Fields[0].Field)

	_, err = env.Remarks.Save(ctx, formMaster, remark.UpdateRemark{StudentID: "st1", TermID: "t9", FormMasterRemark: str("Good.")})
	assert.Equal(t, school.ErrTermNotFound, err)

	r, err := env.Remarks.Save(ctx, formMaster, remark.UpdateRemark{StudentID: " st1 ", TermID: "t2", FormMasterRemark: str(" Works hard. ")})
	require.NoError(t, err)
	assert.Equal(t, "Works hard.", r.FormMasterRemark)
	assert.Equal(t, "s1", r.SessionID)

	_, err = env.Remarks.Save(ctx, principal, remark.UpdateRemark{StudentID: "st1", TermID: "t2", PrincipalRemark: str("Promoted.")})
	require.NoError(t, err)

	r, err = env.Remarks.Get(ctx, "st1", "t2")
	require.NoError(t, err)
	assert.Equal(t, "Works hard.", r.FormMasterRemark)
	assert.Equal(t, "Promoted.", r.PrincipalRemark)
	assert.Equal(t, principal.UserID, r.UpdatedBy)

	r, err = env.Remarks.Save(ctx, admin, remark.UpdateRemark{StudentID: "st1", TermID: "t2", FormMasterRemark: str(""), PrincipalRemark: str("Repeat.")})
	require.NoError(t, err)
	assert.Empty(t, r.FormMasterRemark)
	assert.Equal(t, "Repeat.", r.PrincipalRemark)

	_, err = env.Remarks.Get(ctx, "st2", "t2")
	assert.Equal(t, remark.ErrNotFound, err)

	logs, err := env.Audit.Query(ctx, audit.QueryFilter{Action: audit.ActionSaveRemark})
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

type writerFunc func(ctx context.Context, p remark.Prompt) (string, error)

func (f writerFunc) WriteRemark(ctx context.Context, p remark.Prompt) (string, error) {
	return f(ctx, p)
}

func TestService_Draft(t *testing.T) {
	ctx := context.Background()
	req := remark.DraftRequest{StudentID: "st1", TermID: "t2"}

	var got remark.Prompt
	env := testutil.NewEnv(t, testutil.WithRemarkWriter(writerFunc(func(_ context.Context, p remark.Prompt) (string, error) {
		got = p
		return "  A steady, diligent learner.  ", nil
	})))
	_, err := env.Scores.Upsert(ctx, audit.Actor{UserID: "t", Role: user.RoleTeacher}, score.NewScore{
		StudentID: "st1", SubjectID: "sub1", TermID: "t2", CA1: 8, CA2: 7, Assignment: 9, Notes: 6, Exam: 55,
	})
	require.NoError(t, err)

	text, err := env.Remarks.Draft(ctx, req, user.RolePrincipal)
	require.NoError(t, err)
	assert.Equal(t, "A steady, diligent learner.", text)
	assert.Equal(t, remark.Prompt{StudentName: "Chinedu Okonkwo", Performance: "Mathematics: 85 (A)", Perspective: "Principal"}, got)

	_, err = env.Remarks.Draft(ctx, remark.DraftRequest{StudentID: "st404", TermID: "t2"}, user.RoleFormMaster)
	assert.Equal(t, school.ErrStudentNotFound, err)

	tests := []struct {
		name   string
		writer remark.Writer
	}{
		{name: "no writer"},
		{name: "writer failed", writer: writerFunc(func(context.Context, remark.Prompt) (string, error) {
			return "", errors.New("quota exceeded")
		})},
		{name: "blank draft", writer: writerFunc(func(context.Context, remark.Prompt) (string, error) {
			return " \n", nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t, testutil.WithRemarkWriter(tt.writer))
			text, err := env.Remarks.Draft(ctx, req, user.RoleFormMaster)
			require.NoError(t, err)
			assert.Equal(t, remark.FallbackRemark, text)
		})
	}
}
