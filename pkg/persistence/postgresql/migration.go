package postgresql

// The automation engine owns its own tables. Domain tables (items, lots,
// production_orders, purchase_orders, stock_movements, users) belong to the
// surrounding application and are only read here; they are created as part
// of that application's schema, not these migrations.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT true,
				trigger_type VARCHAR(50) NOT NULL,
				trigger_schedule JSONB,
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				execution_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_tenant ON workflows(tenant_id);
			CREATE INDEX idx_workflows_trigger ON workflows(tenant_id, trigger_type) WHERE enabled;

			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				triggered_by VARCHAR(255) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				status VARCHAR(20) NOT NULL,
				results JSONB NOT NULL DEFAULT '[]',
				duration_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_workflow_executions_workflow ON workflow_executions(workflow_id, started_at);

			CREATE TABLE alerts (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				type VARCHAR(50) NOT NULL,
				severity VARCHAR(20) NOT NULL,
				title VARCHAR(500) NOT NULL,
				message TEXT NOT NULL DEFAULT '',
				entity_type VARCHAR(100) NOT NULL DEFAULT '',
				entity_id VARCHAR(255) NOT NULL DEFAULT '',
				metadata JSONB,
				triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
				acknowledged_by VARCHAR(255),
				acknowledged_at TIMESTAMP WITH TIME ZONE,
				resolved BOOLEAN NOT NULL DEFAULT false,
				resolved_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_alerts_tenant ON alerts(tenant_id, triggered_at DESC);
			CREATE INDEX idx_alerts_dedup ON alerts(tenant_id, type, entity_id, triggered_at DESC);

			CREATE TABLE scheduled_tasks (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(50) NOT NULL,
				frequency VARCHAR(20) NOT NULL,
				cron_expression VARCHAR(255) NOT NULL DEFAULT '',
				configuration JSONB,
				enabled BOOLEAN NOT NULL DEFAULT true,
				last_run_at TIMESTAMP WITH TIME ZONE,
				last_run_status VARCHAR(20) NOT NULL DEFAULT '',
				next_run_at TIMESTAMP WITH TIME ZONE NOT NULL,
				recipients JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_scheduled_tasks_due ON scheduled_tasks(next_run_at) WHERE enabled;

			CREATE TABLE task_executions (
				id UUID PRIMARY KEY,
				task_id UUID NOT NULL REFERENCES scheduled_tasks(id) ON DELETE CASCADE,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				status VARCHAR(20) NOT NULL,
				output JSONB,
				error TEXT NOT NULL DEFAULT '',
				duration_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_task_executions_task ON task_executions(task_id, started_at);

			CREATE TABLE notifications (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				category VARCHAR(50) NOT NULL DEFAULT '',
				title VARCHAR(500) NOT NULL,
				message TEXT NOT NULL DEFAULT '',
				link VARCHAR(1000) NOT NULL DEFAULT '',
				read BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_notifications_user ON notifications(tenant_id, user_id, created_at DESC);
		`,
	}
}
