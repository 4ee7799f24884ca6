// The [homeroom] package keeps a client's view of the homeroom platform in
// sync with its REST API.
//
// # Data Context
//
// A [DataContext] holds, for each entity kind (boards, board items,
// resources, lessons, planners and planner items), the list loaded from the
// server and a "current" entity. Build one per session and pass it to the
// code that needs it:
//
//	c := client.New("http://localhost:8080", client.WithAuthToken(token))
//	dc := homeroom.New(c)
//
//	dc.LoadBoards(ctx)
//	if msg := dc.Error(); msg != "" {
//		// show msg
//	}
//	for _, b := range dc.Boards() {
//		fmt.Println(b.Title)
//	}
//
// Local state only changes after the server acknowledged a request. Load and
// Get operations never return an error; they record it and [DataContext.Error]
// reports it. Create, Update and Delete operations also return the error.
//
// # Loading and errors
//
// Every kind tracks its own loading flag and error. [DataContext.Loading] is
// true while an operation of any kind is in flight and [DataContext.Error] is
// the most recent error still set on any kind. [DataContext.Status] keeps the
// per-kind detail.
//
// # Children
//
// Board items and planner items are loaded per parent. Deleting a board or a
// planner leaves its items in local state unless the DataContext was built
// with [WithCascadeDelete].
//
// # Live updates
//
// Changes made by other clients can be followed with
// [github.com/homeroomhq/homeroom/pkg/live.Subscribe] and [DataContext.Watch].
package homeroom
