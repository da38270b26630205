package ghm

const map_html = `<!DOCTYPE html>
<html><head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
	html, body, #map { height: 100%; margin: 0; }
	form { position: absolute; top: 0.5em; right: 0.5em; z-index: 1000; background: #fff; padding: 0.5em; }
	.marker { width: 10px; height: 10px; border: 1px solid #000; }
	.marker.circle { border-radius: 50%; }
	.marker.diamond { transform: rotate(45deg); }
</style>
</head>
<body>
<form method="get" action="/map">
	<input type="text" name="title" value="{{ .Title }}">
	<select name="icon">
	{{- range .Config.Icons }}
		<option value="{{ . }}"{{ if eq . $.Icon }} selected{{ end }}>{{ . }}</option>
	{{- end }}
	</select>
	<select name="color">
	{{- range .Config.IconColors }}
		<option value="{{ . }}"{{ if eq . $.Color }} selected{{ end }}>{{ . }}</option>
	{{- end }}
	</select>
	<input type="number" name="zoom" min="1" max="19" value="{{ .Zoom }}">
	<button type="submit">Submit</button>
</form>
<div id="map"></div>
<script>
const track = {{ .Track }};
const tiles = {{ .Config.Tiles }};
const icon = {{ .Icon }};
const color = {{ .Color }};

const start = track.length > 0 ? [track[0].lat, track[0].lon] : [0, 0];
const map = L.map("map").setView(start, {{ .Zoom }});
L.control.scale().addTo(map);

const layers = {};
tiles.forEach((url, i) => {
	const layer = L.tileLayer(url, {maxZoom: 19});
	if (i === 0) {
		layer.addTo(map);
	}
	layers[url] = layer;
});
L.control.layers(layers).addTo(map);

for (const p of track) {
	const marker = L.divIcon({className: "marker " + icon, html: "", iconSize: [10, 10]});
	L.marker([p.lat, p.lon], {icon: marker}).addTo(map);
}
document.querySelectorAll(".marker").forEach(el => el.style.background = color);
</script>
</body>
</html>
`
