package templates

const layoutHTML = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.}} | SCR Agro Farms Admin</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f4;color:#1f2a1f}
nav{display:flex;gap:1rem;padding:1rem 2rem;background:#2f5d2f}
nav a{color:#fff;text-decoration:none;font-weight:600}
main{padding:1.5rem 2rem}
.kpis{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:1rem}
.kpi{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.kpi strong{display:block;font-size:1.6rem}
.alert{padding:.6rem 1rem;border-left:4px solid;margin:.4rem 0;background:#fff}
.alert.critical{border-color:#c62828}.alert.warning{border-color:#f9a825}.alert.info{border-color:#1565c0}
.bars{display:flex;align-items:flex-end;gap:1rem;height:220px}
.bar{flex:1;display:flex;flex-direction:column;justify-content:flex-end;text-align:center}
.bar span{display:block;background:#7cb342;border-radius:4px 4px 0 0}
.bar.peak span{background:#2f5d2f}
.tile{text-align:center}.tile.completed strong{color:#3949ab}.tile.pending strong{color:#f9a825}
.tile.cancelled strong{color:#c62828}.tile.delivered strong{color:#2e7d32}
.orders{list-style:none;padding:0}
.orders li{display:flex;justify-content:space-between;background:#fff;padding:.6rem 1rem;margin:.4rem 0;border-radius:8px}
.orders small{display:block;color:#6b7280}
.badge{display:inline-block;padding:.1rem .5rem;border-radius:999px;font-size:.75rem;background:#eceff1}
.badge.completed{background:#e8f5e9}.badge.pending{background:#fff8e1}.badge.cancelled{background:#ffebee}
</style>
</head>
<body>
<nav><a href="/admin">Home</a><a href="/admin/analytics">Sales analytics</a><a href="/admin/alerts">Alerts</a></nav>
<main>{{end}}

{{define "foot"}}</main>
</body>
</html>{{end}}
`

const fragmentsHTML = `
{{define "kpis"}}<section id="overview-kpis" class="kpis">
<div class="kpi">Pending orders<strong>{{.PendingOrders}}</strong></div>
<div class="kpi">Low stock items<strong>{{.LowStockCount}}</strong></div>
<div class="kpi">Sales today<strong>{{money .SalesToday}}</strong></div>
<div class="kpi">New customers (7d)<strong>{{.RecentCustomers}}</strong></div>
</section>{{end}}

{{define "home-alerts"}}<section id="home-alerts">
<h2>Stock alerts</h2>
{{range .}}<div class="alert {{.Severity}}"><b>{{.Title}}</b> {{.Message}}</div>
{{else}}<p>All products are above their minimum stock level.</p>
{{end}}</section>{{end}}

{{define "sales-report"}}<section id="sales-report">
<h2>{{.Report.Series.Title}}</h2>
<div class="bars">
{{range .Bars}}<div class="bar{{if .Peak}} peak{{end}}"><small>{{money .Value}}</small><span style="height:{{.Percent}}%"></span><b>{{.Label}}</b></div>
{{end}}</div>
<div class="kpis">
<div class="kpi">Peak period<strong>{{.Report.Series.Peak}}</strong></div>
<div class="kpi">Total orders<strong>{{.Report.Stats.TotalOrders}}</strong></div>
<div class="kpi">Total revenue<strong>{{money .Report.Stats.TotalRevenue}}</strong></div>
<div class="kpi">Average order value<strong>{{money .Report.Stats.AverageOrderValue}}</strong></div>
<div class="kpi">Delivered orders<strong>{{.Report.Stats.DeliveredOrdersCount}}</strong></div>
<div class="kpi">Peak hour<strong>{{hour .Report.PeakHour}}</strong></div>
</div>
<h3>Quick stats</h3>
<div class="kpis">
<div class="kpi tile completed">Completed orders<strong>{{.Report.QuickStats.Completed}}</strong></div>
<div class="kpi tile pending">Pending orders<strong>{{.Report.QuickStats.Pending}}</strong></div>
<div class="kpi tile cancelled">Cancelled orders<strong>{{.Report.QuickStats.Cancelled}}</strong></div>
<div class="kpi tile delivered">Delivered orders<strong>{{.Report.QuickStats.Delivered}}</strong></div>
</div>
<h3>Recent orders</h3>
<ul class="orders">
{{range .Report.RecentOrders}}<li><div><b>Order #{{.Label}}</b><small>{{.Customer}}</small><small>{{stamp .CreatedAt}}</small></div>
<div>{{money .Total}} <span class="badge {{.Status}}">{{.Status}}</span></div></li>
{{else}}<li>No orders found to display analytics.</li>
{{end}}</ul>
</section>{{end}}

{{define "alert-feed"}}<section id="alert-feed">
<div class="kpis">
<div class="kpi">Critical<strong>{{.Critical}}</strong></div>
<div class="kpi">Warnings<strong>{{.Warnings}}</strong></div>
<div class="kpi">Pending orders<strong>{{.Pending}}</strong></div>
</div>
{{range .Alerts}}<div class="alert {{.Severity}}"><b>{{.Title}}</b> {{.Description}} <small>{{stamp .Timestamp}}</small></div>
{{else}}<p>No alerts.</p>
{{end}}</section>{{end}}
`

const pagesHTML = `
{{define "home"}}{{template "head" "Home"}}
<div data-on-load="@get('/sse/live?view=overview')">
<h1>Dashboard</h1>
{{template "kpis" .}}
{{template "home-alerts" .Alerts}}
</div>
{{template "foot"}}{{end}}

{{define "analytics"}}{{template "head" "Sales analytics"}}
<div data-signals="{policy: '{{range .Policies}}{{if .Selected}}{{.Value}}{{end}}{{end}}'}" data-on-load="@get('/sse/live?view=sales')">
<h1>Sales analytics</h1>
<select data-bind-policy data-on-change="@get('/sse/sales')">
{{range .Policies}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Title}}</option>
{{end}}</select>
{{template "sales-report" .}}
</div>
{{template "foot"}}{{end}}

{{define "alerts"}}{{template "head" "Alerts"}}
<div data-on-load="@get('/sse/live?view=alerts')">
<h1>Alerts</h1>
<button data-on-click="@get('/sse/alerts')">Refresh</button>
{{template "alert-feed" .}}
</div>
{{template "foot"}}{{end}}

{{define "loading"}}{{template "head" .}}
<div data-on-load="@get('/sse/live')">
<h1>{{.}}</h1>
<p>Loading data from the backend&hellip;</p>
</div>
{{template "foot"}}{{end}}
`
