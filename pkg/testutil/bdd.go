package testutil

import "testing"

// Given, When and Then wrap subtests with readable step names so scenario
// tests stay legible without pulling in a BDD framework.
func Given(t *testing.T, step string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+step, fn)
}

func When(t *testing.T, step string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+step, fn)
}

func Then(t *testing.T, step string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+step, fn)
}
