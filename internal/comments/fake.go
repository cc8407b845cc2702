package comments

// fakeLoginURL is where the development fake sends anonymous viewers.
const fakeLoginURL = "/#comments"

func fakeListResponse() Response {
	return Response{
		URL:      fakeLoginURL,
		LoggedIn: false,
	}
}
