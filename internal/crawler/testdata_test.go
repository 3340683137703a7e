package crawler

const reklama5Listing = `<html><body>
<div class="row">
  <div class="ad-image-div col-lg-4 text-left"><div class="ad-image" style="background-image: url('//i.reklama5.mk/1.jpg')"></div></div>
  <div class="ad-desc-div col-lg-6 text-left">
    <a class="SearchAdTitle" href="/AdDetails?ad=1">  Голф 4
      1.9 TDI </a>
    <span class="search-ad-price">12.500
      ЕУР</span>
    <a class="text-secondary"><small>Возила</small></a>
  </div>
</div>
<div class="row">
  <div class="ad-image-div col-lg-4 text-left"><div class="ad-image" style="background-image: url('//i.reklama5.mk/2.jpg')"></div></div>
  <div class="ad-desc-div col-lg-6 text-left">
    <span class="promoted-badge">Истакнат</span>
    <a class="SearchAdTitle" href="/AdDetails?ad=2">Платен оглас</a>
    <span class="search-ad-price">100 ЕУР</span>
  </div>
</div>
<div class="row">
  <div class="ad-image-div col-lg-4 text-left"><div class="ad-image"></div></div>
  <div class="ad-desc-div col-lg-6 text-left">
    <a class="SearchAdTitle" href="/AdDetails?ad=3#photos">Велосипед</a>
    <span class="search-ad-price">По Договор</span>
  </div>
</div>
</body></html>`

const reklama5Detail1 = `<html><body>
<div class="col-4 align-self-center"><span>Скопје</span></div>
<div class="col-4 align-self-center"><span>Возила</span></div>
<div class="col-4 align-self-center"><span>Денес 10:15</span></div>
<p class="mt-3">Одлична состојба, прва рака.



Прикажи го телефонот
Пријави оглас</p>
<h6><a href="tel:078123456">078 123 456</a><a href="tel:070111222">070 111 222</a></h6>
</body></html>`

const reklama5DetailNoPhone = `<html><body>
<div class="col-4 align-self-center"><span>Битола</span></div>
<div class="col-4 align-self-center"><span>Спорт</span></div>
<div class="col-4 align-self-center"><span>15.03.2024 18:22</span></div>
<p class="mt-3">Нов велосипед</p>
<h6>070 000 000</h6>
</body></html>`

const pazar3JSONLDListing = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"ItemList","itemListElement":[
  {"@type":"ListItem","position":1,"item":{"@type":"Product","name":"Лаптоп Lenovo","url":"https://www.pazar3.mk/oglas/elektronika/laptop/1",
    "image":["https://media.pazar3.mk/1.jpg","https://media.pazar3.mk/1b.jpg"],
    "offers":{"@type":"Offer","price":"18000.00","priceCurrency":"MKD"}}},
  {"@type":"ListItem","position":2,"item":{"@type":"Product","name":"Стан центар","url":"https://www.pazar3.mk/oglas/zivealista/stan/2",
    "offers":{"@type":"Offer","price":0,"priceCurrency":"EUR"}}}
]}
</script>
<script type="application/ld+json">{not json</script>
</head><body><div class="search-empty"></div></body></html>`

const pazar3Detail1 = `<html><body>
<div class="description-area"><span>Лаптоп во <b>одлична</b> состојба<script>track()</script></span></div>
<a class="btn-icon-left new-btn btn-default">+389 75 222 333</a>
<span class="published-date">мај 12 2024</span>
</body></html>`

const pazar3Detail2 = `<html><body>
<div class="description-area"><span>Стан 55м2</span></div>
<a class="btn-icon-left new-btn btn-default">071/222-333</a>
<a class="btn-icon-left new-btn btn-default">02 3 111 222</a>
</body></html>`

const itmkListing = `<html><body>
<div class="structItem structItem--listing">
  <div class="structItem-cell--icon"><img src="/data/listing/1.jpg"></div>
  <div class="structItem-cell--main">
    <div class="structItem-title"><a href="/oglasnik/items/rtx-3060.42/">RTX 3060</a></div>
    <ul><li><span>15.000 ден</span></li></ul>
    <time class="u-dt" data-date-string="May 12, 2024">May 12, 2024</time>
  </div>
</div>
<div class="structItem structItem--listing">
  <div class="structItem-cell--main">
    <i class="structItem-status--sticky"></i>
    <div class="structItem-title"><a href="/oglasnik/items/pravila.1/">Правила</a></div>
  </div>
</div>
<div class="structItem structItem--listing">
  <div class="structItem-cell--main">
    <div class="structItem-title"><a href="/oglasnik/items/ram.43/">DDR4 16GB</a></div>
    <ul><li><span>2.500</span></li></ul>
  </div>
</div>
</body></html>`
