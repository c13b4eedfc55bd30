package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func TestGeneratorConfig(t *testing.T) {
	cfg := GeneratorConfig("./internal/repository/query")

	assert.Equal(t, "./internal/repository/query", cfg.OutPath)
	assert.Equal(t, "MonikaNotify/internal/model", cfg.ModelPkgPath)
	assert.Equal(t, gen.WithDefaultQuery|gen.WithQueryInterface|gen.WithoutContext, cfg.Mode)
	assert.True(t, cfg.FieldNullable)
	assert.True(t, cfg.FieldWithTypeTag)
}

func TestGenerateRejectsNilDB(t *testing.T) {
	assert.ErrorIs(t, Generate(nil, t.TempDir()), gorm.ErrInvalidDB)
}
