package main

import (
	"os"

	"sendgrid-grafana-plugin/pkg/plugin"

	"github.com/grafana/grafana-plugin-sdk-go/backend/datasource"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// pluginID must match the id in plugin.json.
const pluginID = "sendgrid-datasource"

func main() {
	if err := datasource.Manage(pluginID, plugin.NewDatasource, datasource.ManageOpts{}); err != nil {
		log.DefaultLogger.Error("SendGrid datasource exited with an error", "error", err.Error())
		os.Exit(1)
	}
}
