package news

// DefaultNews is served by a fresh deployment until news is managed with
// `kuasap-cli news`.
var DefaultNews = []News{
	{
		Title:  "iRunner高應大路跑",
		Image:  "http://i.imgur.com/Wdwa1W0.jpg",
		Link:   "https://www.facebook.com/KUASiRunner",
		Weight: 0,
	},
	{
		Title:  "104級排球社期初社員大會",
		Image:  "http://i.imgur.com/Kjl1iZe.jpg",
		Link:   "https://www.facebook.com/events/970003029729702/970003066396365/",
		Weight: 0,
	},
	{
		Title:  "學生會實習幹部甄選 同雁翱翔",
		Image:  "http://i.imgur.com/G2hbmrL.jpg",
		Link:   "https://docs.google.com/forms/d/1Q45XyafbKGSavFUn_R_uQpV918V5uanqw7ggOmp7p2c/viewform?c=0&w=1",
		Weight: 5,
	},
	{
		Title:  "第八屆志工營-王者之劍",
		Image:  "http://i.imgur.com/Bp6JFCh.jpg",
		Link:   "https://www.facebook.com/KUAS.Soc",
		Weight: 5,
	},
	{
		Title:  "韻箏社  期初社員大會",
		Image:  "http://i.imgur.com/6OblQiR.jpg",
		Link:   "https://www.facebook.com/kuaszither",
		Weight: 5,
	},
}
