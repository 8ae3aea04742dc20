package cmd

import (
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/actions/adjust_inventory"
	"github.com/stockflow-io/stockflow/pkg/actions/assign_user"
	"github.com/stockflow-io/stockflow/pkg/actions/call_webhook"
	"github.com/stockflow-io/stockflow/pkg/actions/create_alert"
	"github.com/stockflow-io/stockflow/pkg/actions/create_purchase_order"
	"github.com/stockflow-io/stockflow/pkg/actions/execute_script"
	"github.com/stockflow-io/stockflow/pkg/actions/run_report"
	"github.com/stockflow-io/stockflow/pkg/actions/send_email"
	"github.com/stockflow-io/stockflow/pkg/actions/update_item"
	"github.com/stockflow-io/stockflow/pkg/actions/update_status"
	"github.com/stockflow-io/stockflow/pkg/monitor"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
	"github.com/stockflow-io/stockflow/pkg/registry"
	"github.com/stockflow-io/stockflow/pkg/tasks"
)

// NewRegistry builds the registry with every built-in action factory and
// task handler wired to its dependencies.
func NewRegistry(
	logger *slog.Logger,
	p persistence.Persistence,
	dispatcher *notifier.Dispatcher,
	m *monitor.Monitor,
	channel protocol.NotificationChannel,
) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reportHandler := tasks.NewReportHandler(p)

	reg.RegisterAction(send_email.NewFactory(channel))
	reg.RegisterAction(create_alert.NewFactory(p, dispatcher))
	reg.RegisterAction(create_purchase_order.NewFactory(p))
	reg.RegisterAction(adjust_inventory.NewFactory(p))
	reg.RegisterAction(update_item.NewFactory(p))
	reg.RegisterAction(update_status.NewFactory(p))
	reg.RegisterAction(call_webhook.NewFactory())
	reg.RegisterAction(run_report.NewFactory(reportHandler.Run))
	reg.RegisterAction(assign_user.NewFactory(p))
	reg.RegisterAction(execute_script.NewFactory())

	reg.RegisterTaskHandler(reportHandler)
	reg.RegisterTaskHandler(tasks.NewExportHandler(p))
	reg.RegisterTaskHandler(tasks.NewBackupHandler(p))
	reg.RegisterTaskHandler(tasks.NewAlertCheckHandler(m))
	reg.RegisterTaskHandler(tasks.NewSyncHandler(p))
	reg.RegisterTaskHandler(tasks.NewCleanupHandler(p))

	return reg
}
