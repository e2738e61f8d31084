package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "API : ", 0), core.NewTestConfig())
	logger.Enable(false)
	defer logger.Close()

	tests := []struct {
		name string
		log  func()
		want string
	}{
		{
			name: "message",
			log:  func() { logger.Info("Application stopped") },
			want: "API : INFO Application stopped\n",
		},
		{
			name: "error with extras",
			log: func() {
				logger.Warn("rate limiter unavailable", errors.New("dial tcp"), map[string]interface{}{"key": "192.0.2.1"})
			},
			want: "API : WARNING rate limiter unavailable: dial tcp map[key:192.0.2.1]\n",
		},
		{
			name: "actor",
			log: func() {
				logger.Error("audit log LOGIN dropped", audit.Actor{UserID: "u1", Role: user.RoleAdmin, IPAddress: "192.0.2.1"})
			},
			want: "API : ERROR audit log LOGIN dropped map[ip_address:192.0.2.1 role:ADMIN]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func Test_newEntry(t *testing.T) {
	err := errors.New("boom")
	usr := user.User{ID: "u1", Name: "Ada", Email: "ada@school.ng"}

	e := newEntry([]interface{}{err, errors.New("second"), usr, 42})
	assert.Equal(t, err, e.err)
	assert.Equal(t, "u1", e.person.Id)
	assert.Equal(t, "ada@school.ng", e.person.Email)
	assert.Equal(t, map[string]interface{}{"arg3": 42}, e.extras)

	e = newEntry([]interface{}{audit.Actor{Role: user.RoleParent}})
	assert.Nil(t, e.person)
	assert.Equal(t, map[string]interface{}{"role": user.RoleParent}, e.extras)
}
