package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/hollowmc/hollow/cmd/hollow/commands"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApp records which operation ran and with which profile path.
type fakeApp struct {
	plan        domain.Plan
	err         error
	planCalls   int
	applyCalls  int
	lastProfile string
}

func (f *fakeApp) Plan(_ context.Context, configPath string) (domain.Plan, error) {
	f.planCalls++
	f.lastProfile = configPath
	return f.plan, f.err
}

func (f *fakeApp) Upgrade(_ context.Context, configPath string) (domain.Plan, error) {
	f.applyCalls++
	f.lastProfile = configPath
	return f.plan, f.err
}

func execute(t *testing.T, app *fakeApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(app)
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(t.Context())
	return out.String(), err
}

func samplePlan() domain.Plan {
	return domain.Plan{Steps: []domain.PlanStep{
		{
			Action:  domain.ActionAdd,
			Ref:     domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "sodium"},
			Version: domain.ModVersion{ID: "1.0.0"},
		},
		{
			Action: domain.ActionRemove,
			Ref:    domain.ModReference{Platform: domain.PlatformModrinth, ProjectID: "lithium"},
			Old:    &domain.LockEntry{VersionID: "0.9.0"},
		},
	}}
}

func TestCommands(t *testing.T) {
	t.Run("PlanPrintsStepsWithoutApplying", func(t *testing.T) {
		app := &fakeApp{plan: samplePlan()}
		out, err := execute(t, app, "plan")
		require.NoError(t, err)

		assert.Equal(t, 1, app.planCalls)
		assert.Zero(t, app.applyCalls)
		assert.Contains(t, out, "+ modrinth:sodium 1.0.0")
		assert.Contains(t, out, "- modrinth:lithium 0.9.0")
		assert.Contains(t, out, "1 add")
	})

	t.Run("UpgradeApplies", func(t *testing.T) {
		app := &fakeApp{plan: samplePlan()}
		_, err := execute(t, app, "upgrade")
		require.NoError(t, err)
		assert.Equal(t, 1, app.applyCalls)
		assert.Zero(t, app.planCalls)
	})

	t.Run("UpgradeDryRunOnlyPlans", func(t *testing.T) {
		app := &fakeApp{plan: samplePlan()}
		out, err := execute(t, app, "upgrade", "--dry-run")
		require.NoError(t, err)
		assert.Equal(t, 1, app.planCalls)
		assert.Zero(t, app.applyCalls)
		assert.Contains(t, out, "+ modrinth:sodium 1.0.0")
	})

	t.Run("ConfigFlagPropagates", func(t *testing.T) {
		app := &fakeApp{}
		_, err := execute(t, app, "plan", "--config", "servers/prod.yaml")
		require.NoError(t, err)
		assert.Equal(t, "servers/prod.yaml", app.lastProfile)
	})

	t.Run("DefaultConfigPath", func(t *testing.T) {
		app := &fakeApp{}
		_, err := execute(t, app, "plan")
		require.NoError(t, err)
		assert.Equal(t, "hollow.yaml", app.lastProfile)
	})

	t.Run("Version", func(t *testing.T) {
		app := &fakeApp{}
		out, err := execute(t, app, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "hollow version")
	})

	t.Run("ErrorPropagates", func(t *testing.T) {
		app := &fakeApp{err: domain.ErrNoCompatibleVersion}
		_, err := execute(t, app, "upgrade")
		require.ErrorIs(t, err, domain.ErrNoCompatibleVersion)
	})
}
