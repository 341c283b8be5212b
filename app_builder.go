package gatelab

import (
	"reflect"
	"slices"
)

// Module bundles resources and systems for one concern of a viewer.
type Module interface {
	Install(app *App, cmd *Commands)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	app := &App{
		resources: make(map[reflect.Type]any),
		systems:   make(map[string][]systemFn),
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = make([]systemFn, 0)
	}
	return &AppBuilder{app: app}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	for _, module := range b.modules {
		module.Install(app, commands)
	}
	app.modules = slices.Clone(b.modules)

	return app
}
