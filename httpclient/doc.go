// Package httpclient provides a typed HTTP client with declarative
// request descriptors, bearer-token authentication with coordinated
// refresh, binary and multipart upload encoding, and a structured
// error taxonomy.
//
// Requests are described as values and executed through an injectable
// Transport, so the client itself owns no sockets, TLS, or pooling
// policy. On a 401 the client asks the attached auth.Store for a
// refreshed token and retries the call exactly once.
//
// # Basic Usage
//
//	tokens := auth.NewStore(auth.Config{Refresh: refreshFn})
//	tokens.SetTokens(access, refresh)
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Tokens:  tokens,
//	})
//
//	user, err := httpclient.Get[User](client, ctx, "/users/123")
//
// # Uploads
//
//	resp, err := httpclient.UploadMultipart[UploadResult](client, ctx, "/files",
//	    httpclient.UploadPayload{
//	        Data:     data,
//	        FileName: "profile.jpg",
//	        MIMEType: "image/jpeg",
//	        Fields:   map[string]string{"userId": "123"},
//	    })
package httpclient
