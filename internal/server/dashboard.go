package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>IPSentry</title>
    <meta name="description" content="IP risk scoring and alerting">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>⛨</text></svg>">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --text-tertiary: #52525b;
            --green: #22c55e;
            --red: #ef4444;
        }

        body {
            font-family: -apple-system, 'Segoe UI', sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            font-size: 14px;
            line-height: 1.5;
            -webkit-font-smoothing: antialiased;
        }

        .mono { font-family: ui-monospace, 'SF Mono', monospace; }

        .container { max-width: 1100px; margin: 0 auto; padding: 32px 24px; }

        header {
            display: flex;
            align-items: baseline;
            justify-content: space-between;
            margin-bottom: 24px;
        }
        header h1 { font-size: 20px; font-weight: 600; }
        header .sub { color: var(--text-secondary); font-size: 13px; }

        .cards { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; margin-bottom: 24px; }
        .card {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 16px;
        }
        .card .label { color: var(--text-secondary); font-size: 12px; text-transform: uppercase; letter-spacing: 0.05em; }
        .card .value { font-size: 28px; font-weight: 600; margin-top: 4px; }
        .card .value.safe { color: var(--green); }
        .card .value.suspicious { color: var(--red); }

        .tracker { display: flex; gap: 8px; margin-bottom: 24px; }
        .tracker input {
            flex: 1;
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 6px;
            color: var(--text);
            padding: 8px 12px;
            font-size: 14px;
        }
        .tracker button {
            background: var(--text);
            color: var(--bg);
            border: none;
            border-radius: 6px;
            padding: 8px 20px;
            font-weight: 500;
            cursor: pointer;
        }
        .tracker button:hover { opacity: 0.85; }

        table { width: 100%; border-collapse: collapse; }
        th {
            text-align: left;
            color: var(--text-tertiary);
            font-size: 12px;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            padding: 8px 12px;
            border-bottom: 1px solid var(--border);
        }
        td { padding: 10px 12px; border-bottom: 1px solid var(--border); font-size: 13px; }
        tr:hover td { background: var(--bg-subtle); }

        .badge {
            display: inline-block;
            padding: 2px 8px;
            border-radius: 99px;
            font-size: 12px;
            font-weight: 500;
        }
        .badge.safe { background: rgba(34, 197, 94, 0.12); color: var(--green); }
        .badge.suspicious { background: rgba(239, 68, 68, 0.12); color: var(--red); }

        .flag { color: var(--text-tertiary); }
        .flag.on { color: var(--red); }

        .empty { color: var(--text-tertiary); text-align: center; padding: 40px; }
        #live { color: var(--green); font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <div>
                <h1>IPSentry</h1>
                <div class="sub">IP risk scoring and alerting</div>
            </div>
            <div id="live">● live</div>
        </header>

        <div class="cards">
            <div class="card"><div class="label">Tracked</div><div class="value" id="total">—</div></div>
            <div class="card"><div class="label">Safe</div><div class="value safe" id="safe">—</div></div>
            <div class="card"><div class="label">Suspicious</div><div class="value suspicious" id="suspicious">—</div></div>
        </div>

        <div class="tracker">
            <input id="ip" class="mono" placeholder="Track an IP address (e.g. 8.8.8.8)" />
            <button onclick="track()">Track</button>
        </div>

        <table>
            <thead>
                <tr>
                    <th>IP</th><th>Location</th><th>Fraud</th><th>VPN</th><th>Tor</th><th>Bot</th><th>Verdict</th><th>Tracked</th>
                </tr>
            </thead>
            <tbody id="rows"><tr><td colspan="8" class="empty">Loading…</td></tr></tbody>
        </table>
    </div>

    <script>
        function flag(v) { return '<span class="flag' + (v ? ' on">yes' : '">no') + '</span>'; }

        function render(recs) {
            const rows = document.getElementById('rows');
            if (!recs.length) {
                rows.innerHTML = '<tr><td colspan="8" class="empty">No records yet — track an IP above.</td></tr>';
                return;
            }
            rows.innerHTML = recs.map(r =>
                '<tr><td class="mono">' + r.ip + '</td>' +
                '<td>' + [r.city, r.country].filter(Boolean).join(', ') + '</td>' +
                '<td class="mono">' + r.fraudScore + '</td>' +
                '<td>' + flag(r.vpn) + '</td>' +
                '<td>' + flag(r.tor) + '</td>' +
                '<td>' + flag(r.botStatus) + '</td>' +
                '<td><span class="badge ' + r.suspicionLevel.toLowerCase() + '">' + r.suspicionLevel + '</span></td>' +
                '<td>' + new Date(r.trackedAt).toLocaleString() + '</td></tr>'
            ).join('');
        }

        async function refresh() {
            try {
                const [recsRes, statsRes] = await Promise.all([
                    fetch('/v1/records?limit=50'),
                    fetch('/v1/stats'),
                ]);
                const recs = await recsRes.json();
                const stats = await statsRes.json();
                render(recs.records || []);
                document.getElementById('total').textContent = stats.total;
                document.getElementById('safe').textContent = stats.safe;
                document.getElementById('suspicious').textContent = stats.suspicious;
            } catch (e) {
                document.getElementById('live').textContent = '● disconnected';
                document.getElementById('live').style.color = 'var(--red)';
            }
        }

        async function track() {
            const ip = document.getElementById('ip').value.trim();
            if (!ip) return;
            const res = await fetch('/v1/track/' + encodeURIComponent(ip));
            if (!res.ok) {
                const body = await res.json().catch(() => ({}));
                alert(body.error || 'tracking failed');
                return;
            }
            document.getElementById('ip').value = '';
            setTimeout(refresh, 300);
        }

        document.getElementById('ip').addEventListener('keydown', e => { if (e.key === 'Enter') track(); });

        // Live updates over WebSocket: suspicious verdicts arrive as events
        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = () => refresh();
            ws.onclose = () => setTimeout(connect, 3000);
        }

        connect();
        refresh();
        setInterval(refresh, 10000);
    </script>
</body>
</html>`

func dashboardHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, dashboardHTML)
}
