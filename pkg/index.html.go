package ghm

const index_html = `<!DOCTYPE html>
<html><head>
<meta charset="utf-8">
<title>{{ .Name }} charts</title>
<style>
	body { font-family: sans-serif; margin: 1em; }
	form { display: flex; flex-wrap: wrap; gap: 1em; align-items: center; }
	#svg { width: 100%; }
	.data:disabled + label { color: #aaa; }
</style>

<script type="module">

import * as Plot from "https://cdn.jsdelivr.net/npm/@observablehq/plot@0.6/+esm";

const ydata = document.querySelectorAll(".data");
const xdata = document.getElementById("xData");

function applyState(state) {
	for (const s of state.series) {
		const el = document.getElementById(s.id);
		if (el) {
			el.disabled = s.disabled;
		}
	}
}

xdata.addEventListener("change", () => {
	fetch("/api/v1/axis", {
		method: "POST",
		headers: {"Content-Type": "application/json"},
		body: JSON.stringify({x: xdata.value}),
	})
		.then(response => response.json())
		.then(state => { applyState(state); draw(); });
});

ydata.forEach(d => d.addEventListener("change", draw));

let last = [];

function draw() {
	const x = xdata.value;
	const marks = [];
	ydata.forEach(d => {
		if (d.checked && !d.disabled) {
			marks.push(Plot.line(last, {x: x === "time" ? "ts" : x, y: d.id, stroke: d.dataset.color, curve: "basis"}));
		}
	});
	const plot = Plot.plot({
		grid: true,
		x: {label: x},
		marks: marks,
	});
	plot.id = "svg";
	document.getElementById("svg").replaceWith(plot);
}

function step() {
	fetch("/api/v1/data")
		.then(response => response.json())
		.then(json => {
			for (let e of json) {
				e.ts = new Date(e.ts * 1000);
			}
			last = json;
			draw();
		});
	setTimeout(step, 10000);
}

setTimeout(step, 1000);

</script>
</head>
<body>
<form action="/api/v1/chart.png" method="get" target="_blank">
	<label for="xData">X axis</label>
	<select id="xData" name="x">
	{{- range .XFields }}
		<option value="{{ .Name }}"{{ if eq .Name $.X }} selected{{ end }}>{{ .Name }}</option>
	{{- end }}
	</select>
	{{- range .Series }}
	<span>
		<input type="checkbox" class="data" id="{{ .Name }}" name="y" value="{{ .Name }}" data-color="{{ .Color }}"{{ if .Disabled }} disabled{{ end }}>
		<label for="{{ .Name }}">{{ .Name }} ({{ .Unit }})</label>
		<input type="color" name="{{ .Name }}Color" value="{{ .Color }}">
		<select name="{{ .Name }}PointStyle">
		{{- $p := .Point }}{{ range $.Points }}
			<option value="{{ . }}"{{ if eq . $p }} selected{{ end }}>{{ if . }}{{ . }}{{ else }}none{{ end }}</option>
		{{- end }}
		</select>
		<select name="{{ .Name }}LineStyle">
		{{- $l := .Line }}{{ range $.Lines }}
			<option value="{{ . }}"{{ if eq . $l }} selected{{ end }}>{{ . }}</option>
		{{- end }}
		</select>
	</span>
	{{- end }}
	<input type="text" name="title" placeholder="Chart title">
	<input type="number" name="lineWidth" min="0.5" step="0.5" value="{{ .LineWidth }}">
	<button type="submit">Render</button>
	<a href="/map" target="_blank">Map</a>
</form>
<div id="svg"></div>
</body>
</html>
`
