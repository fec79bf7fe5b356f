package narrator

// ResponseText exposes responseText to the external test package.
var ResponseText = responseText
