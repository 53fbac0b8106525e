package viewer

// viewerPage is the self-contained page served at /. It connects to the
// command stream and keeps a live listing of the scene.
const viewerPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>optlab viewer</title>
<style>
body { font-family: monospace; background: #1b1b1b; color: #d8d8d8; margin: 2em; }
h1 { font-size: 1.2em; color: #8ec07c; }
table { border-collapse: collapse; }
td, th { padding: 2px 12px; text-align: left; border-bottom: 1px solid #333; }
.hidden { color: #666; }
#status { color: #fabd2f; }
</style>
</head>
<body>
<h1>optlab viewer</h1>
<div id="status">connecting&hellip;</div>
<table>
<thead><tr><th>path</th><th>geometry</th><th>position</th><th>visible</th></tr></thead>
<tbody id="scene"></tbody>
</table>
<script>
const nodes = new Map();

function describe(obj) {
  if (!obj) return "";
  if (obj.type === "box") return "box " + obj.size.join("x");
  if (obj.type === "cylinder") return "cylinder r=" + obj.radius + " l=" + obj.length;
  if (obj.type === "sphere") return "sphere r=" + obj.radius;
  return obj.type;
}

function position(m) {
  if (!m) return "";
  return [m[12], m[13], m[14]].map(v => v.toFixed(3)).join(", ");
}

function render() {
  const body = document.getElementById("scene");
  body.innerHTML = "";
  for (const path of [...nodes.keys()].sort()) {
    const n = nodes.get(path);
    const row = document.createElement("tr");
    const visible = n.props.visible !== false;
    if (!visible) row.className = "hidden";
    for (const text of [path, describe(n.object), position(n.matrix), String(visible)]) {
      const cell = document.createElement("td");
      cell.textContent = text;
      row.appendChild(cell);
    }
    body.appendChild(row);
  }
}

function node(path) {
  if (!nodes.has(path)) nodes.set(path, { object: null, matrix: null, props: {} });
  return nodes.get(path);
}

const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onopen = () => { document.getElementById("status").textContent = "connected"; };
ws.onclose = () => { document.getElementById("status").textContent = "disconnected"; };
ws.onmessage = (ev) => {
  const cmd = JSON.parse(ev.data);
  if (cmd.op === "set_object") node(cmd.path).object = cmd.object;
  else if (cmd.op === "set_transform") node(cmd.path).matrix = cmd.matrix;
  else if (cmd.op === "set_property") node(cmd.path).props[cmd.property] = cmd.value;
  else if (cmd.op === "delete") {
    for (const path of [...nodes.keys()]) {
      if (path === cmd.path || path.startsWith(cmd.path + "/")) nodes.delete(path);
    }
  }
  render();
};
</script>
</body>
</html>
`
