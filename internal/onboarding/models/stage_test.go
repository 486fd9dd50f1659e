package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageAdvance(t *testing.T) {
	assert.Equal(t, StageEmailVerified, StageRegistered.Advance(StageEmailVerified))
	assert.Equal(t, StageAuthenticated, StageAuthenticated.Advance(StageRegistered), "stage never regresses")
	assert.Equal(t, StageNone, StageNone.Advance(StageNone))
}

func TestViewIsEntry(t *testing.T) {
	for _, v := range []View{ViewRegister, ViewLogin, ViewForgotPassword, ViewResetPassword} {
		assert.True(t, v.IsEntry(), v)
	}
	for _, v := range []View{ViewVerifyEmail, ViewCompleteProfile, ViewHome} {
		assert.False(t, v.IsEntry(), v)
	}
}
