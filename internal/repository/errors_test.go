package repository

import (
	"errors"
	"testing"

	"farm_store/internal/errs"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("op", nil))
	assert.True(t, errs.Is(translate("op", gorm.ErrRecordNotFound), errs.KindNotFound))
	assert.True(t, errs.Is(translate("op", gorm.ErrDuplicatedKey), errs.KindConflict))

	err := translate("op", errors.New("connection reset"))
	assert.True(t, errs.Is(err, errs.KindDependency))
	assert.Contains(t, err.Error(), "connection reset")
}
