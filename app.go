package gatelab

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// App is the per-viewer frame scheduler. Resources are keyed by their
// pointed-to type and injected into systems by parameter type.
type App struct {
	modules   []Module
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	steps     uint64
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Step runs every stage once, in order.
func (app *App) Step() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
	app.steps++
}

// Steps reports how many times Step has completed.
func (app *App) Steps() uint64 {
	return app.steps
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T, or nil.
func Resource[T any](app *App) *T {
	r, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return r.(*T)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}
