// Package grantix answers natural-language questions about public grant
// announcements. It combines hybrid retrieval (vector similarity fused with
// structured filters over a Postgres catalog) with a tool-calling language
// model that grounds every answer in retrieved announcements.
//
// The engine ships as an HTTP service (cmd/grantix) and as this embeddable
// client:
//
//	client, err := grantix.New(ctx,
//	    grantix.WithPostgres(os.Getenv("GRANTIX_DB_DSN")),
//	    grantix.WithRedis("localhost:6379", ""),
//	    grantix.WithOpenAI(grantix.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	answer, err := client.Ask(ctx, grantix.AskRequest{
//	    Message: "ayudas para pymes del sector agrícola en Bizkaia",
//	})
//
// Direct retrieval without the model goes through Search:
//
//	open := true
//	matches, _, err := client.Search(ctx, grantix.SearchRequest{
//	    Query:   "digitalización",
//	    Filters: &grantix.Filters{Open: &open},
//	    Limit:   5,
//	})
//
// Custom providers plug in through WithEmbedder and WithChatModel; anything
// speaking the OpenAI API works through WithOpenAI's BaseURL.
package grantix
