/*
Package collector turns raw upstream payloads into model.Record values.

Three providers feed the collection cycle:

  - VideoProvider: YouTube keyword search per region, one record per video
    above the view floor, with like/comment to view ratios.
  - ForumProvider: Discourse top and latest feeds, topics whose title carries a
    workflow keyword and enough views, scored by engagement.
  - TrendProvider: Google Trends interest over the trailing month per keyword
    and region, summarized as mean, change, peak and spread.

A provider never aborts on one failed sub-request (query, feed, keyword). It
logs the failure, counts it and returns whatever records it built.
*/
package collector
