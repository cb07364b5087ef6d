package html

// RunReportTemplate renders a run report as a standalone HTML page
const RunReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>ERP Merge Run - {{.Date}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }

        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 40px 20px;
            margin-bottom: 30px;
            border-radius: 8px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
        }

        header h1 {
            font-size: 2.5em;
            margin-bottom: 10px;
        }

        header p {
            font-size: 1.1em;
            opacity: 0.9;
        }

        .summary {
            background: white;
            padding: 20px;
            border-radius: 8px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05);
        }

        .summary h2 {
            color: #667eea;
            margin-bottom: 15px;
            font-size: 1.5em;
        }

        .stats {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 15px;
            margin-top: 15px;
        }

        .stat-card {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            border-left: 4px solid #667eea;
        }

        .stat-card .label {
            font-size: 0.9em;
            color: #6c757d;
            margin-bottom: 5px;
        }

        .stat-card .value {
            font-size: 1.8em;
            font-weight: bold;
            color: #2c3e50;
        }

        .section {
            background: white;
            padding: 20px;
            border-radius: 8px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05);
        }

        .section-title {
            font-size: 1.1em;
            font-weight: 600;
            color: #495057;
            margin-bottom: 15px;
            padding-bottom: 8px;
            border-bottom: 2px solid #e9ecef;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 20px;
        }

        th {
            background: #f8f9fa;
            padding: 12px;
            text-align: left;
            font-weight: 600;
            color: #495057;
            border-bottom: 2px solid #dee2e6;
        }

        td {
            padding: 12px;
            border-bottom: 1px solid #e9ecef;
        }

        tr:hover {
            background: #f8f9fa;
        }

        .file-name {
            font-family: 'Courier New', monospace;
            color: #667eea;
            font-weight: 600;
        }

        .status-badge {
            display: inline-block;
            padding: 4px 10px;
            border-radius: 4px;
            font-weight: bold;
            font-size: 0.8em;
            letter-spacing: 0.5px;
        }

        .status-processed { background: #49cc90; color: white; }
        .status-skipped { background: #fca130; color: white; }
        .status-failed { background: #f93e3e; color: white; }
        .status-default { background: #6c757d; color: white; }

        .meta td:first-child {
            width: 180px;
            color: #6c757d;
        }

        .column-tag {
            display: inline-block;
            padding: 2px 8px;
            margin: 2px;
            background: #e7f3ff;
            color: #0066cc;
            border-radius: 3px;
            font-size: 0.85em;
        }

        .muted {
            color: #6c757d;
        }

        footer {
            text-align: center;
            padding: 30px 20px;
            color: #6c757d;
            margin-top: 40px;
        }

    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>ERP Merge Run Report</h1>
            <p>Run {{.RunID}} · started {{.Date}} · took {{.Duration}}</p>
        </header>

        <div class="summary">
            <h2>Overview</h2>
            <div class="stats">
                <div class="stat-card">
                    <div class="label">Source Files</div>
                    <div class="value">{{.TotalFiles}}</div>
                </div>
                <div class="stat-card">
                    <div class="label">Processed</div>
                    <div class="value">{{.Processed}}</div>
                </div>
                <div class="stat-card">
                    <div class="label">Skipped</div>
                    <div class="value">{{.Skipped}}</div>
                </div>
                <div class="stat-card">
                    <div class="label">Master Rows</div>
                    <div class="value">{{.TotalRows}}</div>
                </div>
            </div>
        </div>

        <div class="section">
            <div class="section-title">Run</div>
            <table class="meta">
                <tbody>
                    <tr><td>Main workbook</td><td>{{.MainFile}}</td></tr>
                    <tr><td>Project folder</td><td>{{.Folder}}</td></tr>
                    <tr><td>Output file</td><td>{{.OutputFile}} ({{.Sheet}})</td></tr>
                    <tr><td>Formulas evaluated</td><td>{{.Formulas}}{{if .FormulaErrors}} <span class="muted">({{.FormulaErrors}} not evaluable)</span>{{end}}</td></tr>
                </tbody>
            </table>
        </div>

        <div class="section">
            <div class="section-title">Source Files</div>
            <table>
                <thead>
                    <tr>
                        <th>No</th>
                        <th>File</th>
                        <th>Status</th>
                        <th>Rows</th>
                        <th>Sheet Preparation</th>
                        <th>Notes</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Files}}
                    <tr>
                        <td>{{.No}}</td>
                        <td class="file-name">{{.File}}</td>
                        <td><span class="status-badge {{statusClass .Status}}">{{statusBadge .Status}}</span></td>
                        <td>{{.Rows}}</td>
                        <td>{{if .Steps}}{{.Steps}}{{else}}<span class="muted">-</span>{{end}}</td>
                        <td>{{.Reason}}{{if .Schema}} <span class="muted">{{.Schema}}</span>{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <div class="section">
            <div class="section-title">Master Columns</div>
            {{range .Columns}}<span class="column-tag">{{.}}</span>{{end}}
        </div>

        <footer>
            <p>Generated by <strong>ERP Merge</strong> v1.0.0</p>
        </footer>
    </div>
</body>
</html>
`
