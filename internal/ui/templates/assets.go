package templates

const stylesheet = `
:root{color-scheme:dark}
body{margin:0;background:#222;color:#dee2e6;font-family:system-ui,-apple-system,"Segoe UI",Roboto,sans-serif}
.layout{display:flex;gap:20px;padding:20px}
.card{background:#303030;border-radius:6px;padding:15px}
.sidebar{flex:0 0 16%;min-height:90vh}
.charts{flex:1;display:flex;flex-direction:column;gap:12px}
.row{display:flex;gap:12px}
.chart{position:relative;flex:1}
.chart.compact{height:200px}
.chart.wide{height:500px}
.option{display:block;margin:4px 0}
.spaced{margin-top:10px}
.muted{color:#888;font-size:.85em}
.export{position:absolute;top:6px;right:10px;font-size:.75em;color:#00bc8c}
`

// chartScript draws the five chart specs with Chart.js. Each spec carries its
// own orientation, series and height; canvases are rebuilt on every patch.
const chartScript = `(function(){
  var instances={};
  function labelsOf(spec){
    var seen={},out=[];
    (spec.series||[]).forEach(function(s){
      (s.points||[]).forEach(function(p){
        if(!seen[p.label]){seen[p.label]=true;out.push(p.label);}
      });
    });
    return out;
  }
  function draw(spec){
    var canvas=document.getElementById('chart-'+spec.id);
    if(!canvas||!window.Chart){return;}
    if(instances[spec.id]){instances[spec.id].destroy();}
    var labels=labelsOf(spec);
    var datasets=(spec.series||[]).map(function(s){
      var byLabel={};
      (s.points||[]).forEach(function(p){byLabel[p.label]=p.value;});
      return {label:s.name,backgroundColor:s.color,data:labels.map(function(l){return l in byLabel?byLabel[l]:null;})};
    });
    var m=spec.layout.margin;
    instances[spec.id]=new Chart(canvas,{
      type:spec.kind,
      data:{labels:labels,datasets:datasets},
      options:{
        indexAxis:spec.orientation==='h'?'y':'x',
        maintainAspectRatio:false,
        animation:false,
        layout:{padding:{left:m.l,right:m.r,top:m.t,bottom:m.b}},
        plugins:{legend:{display:spec.barmode==='group',labels:{color:'#dee2e6'}}},
        scales:{
          x:{stacked:false,title:{display:true,text:spec.x.title,color:'#dee2e6'},ticks:{color:'#adb5bd'}},
          y:{stacked:false,title:{display:true,text:spec.y.title,color:'#dee2e6'},ticks:{color:'#adb5bd'}}
        }
      }
    });
  }
  window.renderDashboard=function(set){
    if(!set||!set.city){return;}
    [set.city,set.payment,set.product_line,set.gender,set.date].forEach(draw);
  };
})();`
