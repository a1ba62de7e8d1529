package app

import (
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/plugin"
)

// editorAPI implements plugin.EditorAPI on top of the App.
type editorAPI struct {
	app *App
}

var _ plugin.EditorAPI = (*editorAPI)(nil)

func newEditorAPI(app *App) *editorAPI {
	return &editorAPI{app: app}
}

func (api *editorAPI) Text() string {
	if api.app.doc == nil {
		return ""
	}
	return api.app.doc.GetText()
}

func (api *editorAPI) DocID() string    { return api.app.session.DocID() }
func (api *editorAPI) UserName() string { return api.app.session.UserName() }

func (api *editorAPI) SubscribeEvent(eventType event.Type, handler event.Handler) {
	api.app.eventManager.Subscribe(eventType, handler)
}

func (api *editorAPI) SetStatusMessage(format string, args ...interface{}) {
	api.app.statusBar.SetTemporaryMessage(format, args...)
}

func (api *editorAPI) SetStatusItem(name, text string) {
	api.app.statusBar.SetItem(name, text)
}

func (api *editorAPI) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	return api.app.cfg.PluginValue(pluginName, key)
}
