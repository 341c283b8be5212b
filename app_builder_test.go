package gatelab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

type MockModule2 struct {
	installed bool
}

func (m *MockModule2) Install(app *App, commands *Commands) {
	m.installed = true
	commands.AddResources(NewMockResource2("from module"))
}

func TestAppBuilder_DefaultStages(t *testing.T) {
	app := NewAppBuilder().Build()

	names := make([]string, len(app.stages))
	for i, s := range app.stages {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"PreUpdate", "Update", "PostUpdate", "Render", "PostRender"}, names)
	assert.Empty(t, app.modules)
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	mockModule := &MockModule{}
	builder.UseModule(mockModule)

	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}
	if mockModule.installed {
		t.Errorf("Install must wait for Build")
	}
}

func TestAppBuilder_Build_WithModules(t *testing.T) {
	builder := NewAppBuilder()
	module := &MockModule{}
	module2 := &MockModule2{}
	builder.UseModule(module, module2)

	app := builder.Build()

	if !module.installed || !module2.installed {
		t.Errorf("Expected Install to be called on every module")
	}
	assert.Len(t, app.modules, 2)
	assert.Equal(t, "from module", Resource[MockResource2](app).name)
}

func TestAppBuilder_LoggerFallback(t *testing.T) {
	var nilApp *App
	assert.NotNil(t, nilApp.Logger())
	assert.NotNil(t, NewAppBuilder().Build().Logger())
}
