package web

import (
	"bytes"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RendersEveryView(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Load())

	for _, name := range []string{"login", "register", "register_user", "admin", "admin_edit_user", "purchase_history"} {
		var buf bytes.Buffer
		require.NoError(t, engine.Render(&buf, name, fiber.Map{}), name)
		assert.Contains(t, buf.String(), "<html", name)
	}
}

func TestEngine_EscapesMessage(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "login", fiber.Map{"message": "<script>"}))
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
